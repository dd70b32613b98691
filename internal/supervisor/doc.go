// Package supervisor runs ffmpeg renders as supervised subprocesses.
//
// A Supervisor admits one render at a time:
//   - Run blocks until the subprocess exits, streaming raw output lines
//     and parsed progress records to a Listener
//   - Concurrent Run calls fail fast with ErrBusy
//   - Cancel stops the in-flight render with SIGINT, escalating to
//     SIGKILL when the process does not exit within the graceful timeout
//
// The supervisor always invokes ffmpeg with "-progress pipe:1 -y" so
// machine-readable progress arrives on stdout and existing output files
// are overwritten without prompting.
package supervisor
