// Package sdks resolves the environment the evaluation engine needs before it
// can load SDK-style projects.
//
// The SDKs directory is taken from, in order: an explicit option, the
// MSBuildSDKsPath entry of the installation's environment, and the Sdks folder
// of the selected SDK. A Resolver is built once per installation and shared by
// every load.
package sdks
