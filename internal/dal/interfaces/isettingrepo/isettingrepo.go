package isettingrepo

import "context"

// ISettingRepository is an interface for the key/value settings repository.
type ISettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Upsert(ctx context.Context, key, value string) error
}
