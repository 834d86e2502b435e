// Package platform provides cross-platform utilities for directory paths
// and OS-specific conventions.
package platform

// AppName is the application name used for directory naming.
const AppName = "tileroom"

// AppDisplayName is the display name used on Windows and macOS.
const AppDisplayName = "Tileroom"

// GetDataDir returns the application data directory.
// Windows: %APPDATA%\Tileroom
// macOS: ~/Library/Application Support/Tileroom
// Linux: $XDG_DATA_HOME/tileroom or ~/.local/share/tileroom
func GetDataDir() string {
	return getDataDir()
}

// SharedLibExtension returns the shared library extension for the current
// platform, used to locate the ONNX Runtime library.
// Windows: ".dll"; macOS: ".dylib"; Linux: ".so"
func SharedLibExtension() string {
	return sharedLibExtension()
}
