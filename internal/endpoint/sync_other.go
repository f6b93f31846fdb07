//go:build !linux

package endpoint

import "os"

func datasync(f *os.File) error {
	return f.Sync()
}

func adviseSequential(*os.File) {}
