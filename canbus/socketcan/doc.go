// Package socketcan drives a native Linux SocketCAN network interface.
//
// The backend is only available on Linux; on other platforms the package
// compiles but registers nothing, so opening a SocketCAN config reports the
// transport as unavailable.
package socketcan
