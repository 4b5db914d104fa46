// Package library persists the flat JSON data files of the tracker (the
// owned-games list lives in gaming.json). Writes are atomic and keep a
// bounded set of timestamped backups next to the data directory.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// Store 管理 dataDir 下的 JSON 数据文件，一个文件一份业务数据。
type Store struct {
	dataDir    string
	backupDir  string
	maxBackups int
	logger     *logrus.Logger
	now        func() time.Time
}

// NewStore 创建数据与备份目录。maxBackups <= 0 时关闭备份。
func NewStore(dataDir string, maxBackups int, logger *logrus.Logger) (*Store, error) {
	if dataDir == "" {
		return nil, errors.New("data dir required")
	}

	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	backupDir := filepath.Join(abs, "backups")
	if maxBackups > 0 {
		if err := os.MkdirAll(backupDir, 0o755); err != nil {
			return nil, fmt.Errorf("create backup dir: %w", err)
		}
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Store{
		dataDir:    abs,
		backupDir:  backupDir,
		maxBackups: maxBackups,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (s *Store) filePath(name string) string {
	return filepath.Join(s.dataDir, name)
}

// Read 反序列化指定数据文件到 v。文件缺失或损坏时 v 保持零值且不报错，
// 调用方拿到的是“空数据”而不是异常。
func (s *Store) Read(name string, v interface{}) error {
	data, err := os.ReadFile(s.filePath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		s.logger.WithError(err).
			WithFields(logrus.Fields{"action": "data_read", "file": name}).
			Warn("数据文件损坏，按空数据处理")
	}
	return nil
}

// Write 原子写入数据文件；已有文件先按时间戳备份并修剪过量备份。
func (s *Store) Write(name string, v interface{}) error {
	filePath := s.filePath(name)

	if s.maxBackups > 0 {
		if _, err := os.Stat(filePath); err == nil {
			s.createBackup(name)
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tempFile, err := os.CreateTemp(s.dataDir, ".data-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = tempFile.Write(data)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return fmt.Errorf("write %s: %w", name, err)
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// createBackup 复制当前文件为 <stem>_<timestamp>.json；备份失败只告警。
func (s *Store) createBackup(name string) {
	stem := name
	if ext := filepath.Ext(name); ext != "" {
		stem = name[:len(name)-len(ext)]
	}

	timestamp := s.now().Format("20060102_150405")
	backupPath := filepath.Join(s.backupDir, fmt.Sprintf("%s_%s.json", stem, timestamp))

	if err := copyFile(s.filePath(name), backupPath); err != nil {
		s.logger.WithError(err).
			WithFields(logrus.Fields{"action": "data_backup", "file": name}).
			Warn("创建备份失败")
		return
	}
	s.pruneBackups(stem)
}

// pruneBackups 按修改时间保留最近 maxBackups 份，其余删除。
func (s *Store) pruneBackups(stem string) {
	matches, err := filepath.Glob(filepath.Join(s.backupDir, stem+"_*.json"))
	if err != nil || len(matches) <= s.maxBackups {
		return
	}

	type backup struct {
		path    string
		modTime time.Time
	}
	backups := make([]backup, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		backups = append(backups, backup{path: path, modTime: info.ModTime()})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.After(backups[j].modTime)
	})

	for _, old := range backups[min(s.maxBackups, len(backups)):] {
		os.Remove(old.path)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}
