// Package wavpack binds libwavpack to the engine contract in pkg/types.
//
// The binding is only compiled with the wavpack build tag and needs the
// library's pkg-config entry:
//
//	go build -tags wavpack ./...
//
// Streams are handed to the library through a WavpackStreamReader64 table
// and a block output callback implemented in bridge.c; both forward to Go
// through cgo handles, so libwavpack never touches a file descriptor.
package wavpack
