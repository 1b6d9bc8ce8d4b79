package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Pyrad/webcrawler/internal/city"
)

// DefaultFileName 默认配置文件名
const DefaultFileName = "config.toml"

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Report  ReportConfig  `toml:"report"`
	Crawler CrawlerConfig `toml:"crawler"`
	Cities  []city.City   `toml:"cities"`
}

// ServerConfig 只读 API 服务配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir      string `toml:"data_dir"`
	DBName       string `toml:"db_name"`
	WorkbookName string `toml:"workbook_name"`
}

// ReportConfig 周报文档配置
type ReportConfig struct {
	Path    string `toml:"path"`
	Heading bool   `toml:"heading"` // 新建表格时写入周标题注释
	Backup  bool   `toml:"backup"`  // 刷新前把文档复制到 data/backups
}

// CrawlerConfig 抓取配置
type CrawlerConfig struct {
	UserAgent   string `toml:"user_agent"`
	Timeout     string `toml:"timeout"`
	Concurrency int    `toml:"concurrency"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string // 实际读取的配置文件，未读取时为空
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir:      "data",
			DBName:       "webcrawler.db",
			WorkbookName: "snapshots.xlsx",
		},
		Report: ReportConfig{
			Path:    "README.md",
			Heading: true,
			Backup:  false,
		},
		Crawler: CrawlerConfig{
			UserAgent:   "Mozilla/5.0 (compatible; webcrawler/1.0)",
			Timeout:     "15s",
			Concurrency: 4,
		},
		Cities: city.DefaultCities(),
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// resolvePath 未显式指定时依次查找当前目录与可执行文件目录下的 config.toml
func resolvePath(path string) string {
	if path != "" {
		return path
	}
	if fileExists(DefaultFileName) {
		return DefaultFileName
	}
	exeDir, err := GetExeDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(exeDir, DefaultFileName)
}

// LoadConfigWithInfo 加载配置并返回元信息；path 为空时自动查找，文件不存在时使用默认配置
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{}
	config := DefaultConfig()
	explicit := path != ""
	configPath := resolvePath(path)

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.Path = configPath
		info.PortSpecified = isPortSpecifiedInToml(data)
		// [[cities]] 整体替换默认名册
		config.Cities = nil
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", configPath, err)
		}
		if len(config.Cities) == 0 {
			config.Cities = city.DefaultCities()
		}
	case os.IsNotExist(err) && !explicit:
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	// 环境变量覆盖
	if v := os.Getenv("WEBCRAWLER_REPORT_PATH"); v != "" {
		config.Report.Path = v
	}
	if v := os.Getenv("WEBCRAWLER_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}

	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// LoadConfig 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

// SaveConfig 保存配置
func SaveConfig(path string, config *AppConfig) error {
	if path == "" {
		path = DefaultFileName
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate 校验配置
func (c *AppConfig) Validate() error {
	if c.Report.Path == "" {
		return errors.New("report.path is required")
	}
	if c.Data.DataDir == "" {
		return errors.New("data.data_dir is required")
	}
	if _, err := c.CrawlTimeout(); err != nil {
		return err
	}
	if c.Crawler.Concurrency < 0 {
		return fmt.Errorf("crawler.concurrency must not be negative, got %d", c.Crawler.Concurrency)
	}
	if _, err := c.Roster(); err != nil {
		return err
	}
	return nil
}

// CrawlTimeout 单次请求超时
func (c *AppConfig) CrawlTimeout() (time.Duration, error) {
	if c.Crawler.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Crawler.Timeout)
	if err != nil {
		return 0, fmt.Errorf("crawler.timeout: %w", err)
	}
	return d, nil
}

// Roster 由配置中的城市列表构建名册
func (c *AppConfig) Roster() (*city.Roster, error) {
	roster, err := city.NewRoster(c.Cities)
	if err != nil {
		return nil, fmt.Errorf("cities: %w", err)
	}
	return roster, nil
}

// EnsureDataDir 确保数据目录及子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"exports", "backups"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(config.Data.DataDir, subdir, filename)
}

// DBPath SQLite 数据库路径
func (c *AppConfig) DBPath() string {
	return GetDataPath(c, "", c.Data.DBName)
}

// WorkbookPath 快照表格路径
func (c *AppConfig) WorkbookPath() string {
	return GetDataPath(c, "exports", c.Data.WorkbookName)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
