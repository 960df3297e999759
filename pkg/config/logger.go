package config

import (
	"github.com/treeverse/gitvfs/pkg/logging"
)

func (c *Config) setupLogger() error {
	logging.SetOutputFormat(c.Logging.Format)
	if err := logging.SetOutputs(c.Logging.Output, c.Logging.FileMaxSizeMB, c.Logging.FilesKeep); err != nil {
		return err
	}
	logging.SetLevel(c.Logging.Level)
	return nil
}
