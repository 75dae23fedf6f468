// Package discovery locates the dotnet installation that evaluates projects.
//
// A Locator runs `dotnet --list-sdks`, honours the nearest global.json pin
// above the project directory and returns an Instance describing the selected
// SDK. Instances feed the SDK path resolver in package sdks.
package discovery
