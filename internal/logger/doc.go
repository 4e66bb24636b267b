// Package logger provides component based structured logging for ytdl on
// top of logrus.
//
// Features:
//   - Multiple log levels (TRACE, DEBUG, INFO, WARN, ERROR)
//   - Component-based filtering
//   - Text, JSON and colored output through logrus formatters
//   - Time based file rotation through file-rotatelogs
//   - Configuration from JSON files and YTDL_LOG_* environment variables
//
// Usage:
//
//	log := logger.WithComponent(logger.ComponentCipher)
//	log.Info("token sequence cached", map[string]interface{}{
//		"version": "4fcd6e4a",
//		"tokens":  3,
//	})
//
//	config := logger.DefaultConfig()
//	config.Level = logger.DEBUG
//	config.Format = logger.FormatJSON
//	logger.SetGlobalLogger(logger.New(config))
//
// Components:
//   - ComponentApp: command line and facade
//   - ComponentCipher: token sequence extraction and cache
//   - ComponentWatch: watch page parsing
//   - ComponentFormat: source list parsing and URL resolution
//   - ComponentClient: HTTP client
//   - ComponentServer: HTTP server
//   - ComponentClip: ffmpeg clip extraction
package logger
