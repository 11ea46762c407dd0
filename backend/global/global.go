package global

import "github.com/rs/zerolog"

// Logger is set once by main before anything else runs. Everything else
// Build creates lives on initialize.App.
var Logger zerolog.Logger
