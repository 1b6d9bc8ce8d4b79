package report

import (
	"os"
	"path/filepath"
)

var (
	osCreateTemp = os.CreateTemp
	osRename     = os.Rename
)

// writeFileAtomic 先完整写入同目录下的临时文件，再一次 rename 覆盖目标；
// 任何一步失败原文件都保持不变，临时文件会被清理。
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	perm := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		perm = fi.Mode().Perm()
	}

	tmp, err := osCreateTemp(dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := osRename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
