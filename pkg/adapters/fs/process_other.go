//go:build !unix

package fs

// processAlive cannot probe other processes here; locks only expire through
// Locker.StaleAfter.
func processAlive(pid int) bool {
	return true
}
