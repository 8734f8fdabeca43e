package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/cachecc/occ/cache"
	"github.com/cachecc/occ/fsutil"
	"github.com/cachecc/occ/internal/base"
)

// toEvict marks entries destined for removal in a sorted, oldest-first
// slice of entries whose running total exceeds maxSize.
func toEvict(sorted []cache.EntryInfo, maxSize int64, total int64) []cache.EntryInfo {
	var victims []cache.EntryInfo
	for _, e := range sorted {
		if total <= maxSize {
			break
		}
		victims = append(victims, e)
		total -= e.Size
	}
	return victims
}

// runCache dispatches "occ cache stats" and "occ cache gc --max-size",
// external eviction tooling built on the cache's enumerable Iterate hook.
func runCache(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: occ cache <stats|gc> [args...]")
	}

	switch args[0] {
	case "stats":
		return runCacheStats(args[1:])
	case "gc":
		return runCacheGC(args[1:])
	default:
		return fmt.Errorf("occ cache: unknown subcommand %q", args[0])
	}
}

func runCacheStats(args []string) error {
	fs := flag.NewFlagSet("cache stats", flag.ExitOnError)
	root := fs.String("root", ".occ-cache", "cache root directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stats := cache.CurrentStats()
	base.LogForwardf("cache root: %s", *root)
	base.LogForwardf("hits:   %.0f", stats.Hits)
	base.LogForwardf("misses: %.0f", stats.Misses)
	base.LogForwardf("stores: %.0f", stats.Stores)
	return nil
}

// runCacheGC implements a simple size-cap LRU eviction over Store.Iterate:
// entries are sorted oldest-first by mtime and removed until the total
// size is under maxSize.
func runCacheGC(args []string) error {
	fs := flag.NewFlagSet("cache gc", flag.ExitOnError)
	root := fs.String("root", ".occ-cache", "cache root directory")
	maxSize := fs.Int64("max-size", 10<<30, "maximum total cache size in bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := cache.NewStore(fsutil.MakeDirectory(*root), base.COMPRESSION_FORMAT_ZSTD)

	var entries []cache.EntryInfo
	var total int64
	if err := store.Iterate(func(info cache.EntryInfo) error {
		entries = append(entries, info)
		total += info.Size
		return nil
	}); err != nil {
		return err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ModTime < entries[j].ModTime })

	victims := toEvict(entries, *maxSize, total)
	if err := base.ParallelJoin(func(_ int, e cache.EntryInfo) error {
		return os.Remove(e.Path.String())
	}, victims...); err != nil {
		return err
	}

	for _, e := range victims {
		total -= e.Size
	}
	base.LogForwardf("removed %d entries, %d bytes remaining", len(victims), total)
	return nil
}
