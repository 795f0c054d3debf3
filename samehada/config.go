package samehada

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/ryogrid/SamehadaCore/common"
	"gopkg.in/ini.v1"
)

/*
[storage]
pool_size = 50
data_dir  = /var/lib/samehada
on_memory = false

[debug]
log_level    = 112
enable_debug = false
*/
type Config struct {
	// capacity of the buffer pool in pages
	PoolSize uint32
	// directory holding the table files
	DataDir string
	// tables are kept in memory only
	OnMemory bool
	// mask of common.LogLevel bits
	LogLevel common.LogLevel
	// turns on the debug latches and the go-deadlock detector
	EnableDebug bool
}

func NewConfig() *Config {
	return &Config{
		PoolSize:    common.DefaultPoolSize,
		DataDir:     ".",
		OnMemory:    false,
		LogLevel:    common.INFO | common.WARN | common.ERROR | common.FATAL,
		EnableDebug: false,
	}
}

// LoadConfig reads an INI file. Keys not in the file keep the values of NewConfig.
func LoadConfig(path string) (*Config, error) {
	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "load config %s", path)
	}

	cfg := NewConfig()
	cfg.parseStorageCfg(iniFile.Section("storage"))
	cfg.parseDebugCfg(iniFile.Section("debug"))
	if cfg.PoolSize == 0 {
		return nil, pkgerrors.Errorf("config %s: pool_size must be positive", path)
	}
	return cfg, nil
}

func (cfg *Config) parseStorageCfg(section *ini.Section) {
	cfg.PoolSize = uint32(section.Key("pool_size").MustUint(uint(cfg.PoolSize)))
	cfg.DataDir = section.Key("data_dir").MustString(cfg.DataDir)
	cfg.OnMemory = section.Key("on_memory").MustBool(cfg.OnMemory)
}

func (cfg *Config) parseDebugCfg(section *ini.Section) {
	cfg.LogLevel = common.LogLevel(section.Key("log_level").MustInt(int(cfg.LogLevel)))
	cfg.EnableDebug = section.Key("enable_debug").MustBool(cfg.EnableDebug)
}
