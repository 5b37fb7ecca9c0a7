package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/digger/internal/cache"
	"github.com/rohankatakam/digger/internal/errors"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the trunk cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired trunk cache entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(func(m *cache.Manager) error {
			removed, err := m.Prune()
			if err != nil {
				return err
			}
			fmt.Printf("removed %d expired entries\n", removed)
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every trunk cache entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(func(m *cache.Manager) error {
			if err := m.Clear(); err != nil {
				return err
			}
			fmt.Println("trunk cache cleared")
			return nil
		})
	},
}

func withCache(fn func(m *cache.Manager) error) error {
	if !cfg.Cache.Enabled {
		return errors.PreconditionError("trunk cache is disabled (cache.enabled: false)")
	}
	m, err := cache.Open(cfg.Cache.Path, cfg.Cache.TTL, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
