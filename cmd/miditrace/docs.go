package main

// General API documentation for swaggo. Run `swag init` to generate docs.
//
// @title           miditrace API
// @version         1.0
// @description     HTTP API for inspecting decoded Standard MIDI Files.
//
// @contact.name   miditrace maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
