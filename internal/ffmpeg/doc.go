// Package ffmpeg builds and executes the ffmpeg command that encodes a
// numbered frame sequence into a video.
//
// Build maps an assembly.EncodeRequest to an argument slice, Execute runs it
// with stderr captured for error reporting, and CheckAvailable confirms the
// binary is on PATH before any work starts.
package ffmpeg
