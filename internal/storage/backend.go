package storage

import (
	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/sirupsen/logrus"
)

// NewBackend creates the storage backend selected by STORAGE_BACKEND
func NewBackend(cfg *config.Config) (StorageInterface, error) {
	if cfg.StorageBackend == "azure" {
		logrus.Infof("Using Azure Blob Storage container %s in account %s", cfg.StorageContainer, cfg.StorageAccount)
		return NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
	}
	logrus.Infof("Using local data directory %s", cfg.DataDir)
	return NewFileStorage(cfg.DataDir)
}
