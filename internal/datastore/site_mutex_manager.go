package datastore

import (
	"sync"

	"github.com/rs/zerolog"
)

// SiteMutexManager hands out one mutex per site key so that concurrent runs
// never interleave writes to the same site directory.
type SiteMutexManager struct {
	mutexes map[string]*sync.Mutex
	mapLock sync.RWMutex
	logger  zerolog.Logger
}

// NewSiteMutexManager creates a new site mutex manager
func NewSiteMutexManager(logger zerolog.Logger) *SiteMutexManager {
	return &SiteMutexManager{
		mutexes: make(map[string]*sync.Mutex),
		logger:  logger.With().Str("component", "SiteMutexManager").Logger(),
	}
}

// GetMutex returns the mutex guarding key, creating it on first use
func (smm *SiteMutexManager) GetMutex(key string) *sync.Mutex {
	smm.mapLock.RLock()
	mutex, exists := smm.mutexes[key]
	smm.mapLock.RUnlock()

	if exists {
		return mutex
	}

	smm.mapLock.Lock()
	defer smm.mapLock.Unlock()

	// Double-check after acquiring write lock
	if mutex, exists := smm.mutexes[key]; exists {
		return mutex
	}

	mutex = &sync.Mutex{}
	smm.mutexes[key] = mutex
	return mutex
}

// Prune drops the mutexes of keys not listed in active. Call it between runs only.
func (smm *SiteMutexManager) Prune(active []string) {
	activeSet := make(map[string]struct{}, len(active))
	for _, key := range active {
		activeSet[key] = struct{}{}
	}

	smm.mapLock.Lock()
	defer smm.mapLock.Unlock()

	for key := range smm.mutexes {
		if _, ok := activeSet[key]; !ok {
			delete(smm.mutexes, key)
		}
	}

	smm.logger.Debug().Int("active_mutexes", len(smm.mutexes)).Msg("Pruned site mutexes")
}

// Len returns the number of tracked keys
func (smm *SiteMutexManager) Len() int {
	smm.mapLock.RLock()
	defer smm.mapLock.RUnlock()
	return len(smm.mutexes)
}
