package configs

// AppVersion 应用版本号，可在构建时通过 -ldflags 覆盖.
var AppVersion = "dev"
