//go:build darwin

package secretstore

func init() { Default = NewKeychainStore() }
