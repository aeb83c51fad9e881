// Command stormdemo exercises a storm.Store[string] against a scratch
// directory: it stores a handful of strings, updates one, deletes
// another, reports space usage, and prints everything still live.
package main

import (
	"fmt"
	"os"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/johanneslatzel/storm"
	"github.com/johanneslatzel/storm/buffer"
	"github.com/johanneslatzel/storm/storeconfig"
)

func putString(value string, w buffer.Writable) error {
	b := []byte(value)
	w.PutU32(uint32(len(b)))
	w.PutBytes(b)
	return nil
}

func getString(r buffer.Readable) (string, error) {
	n := r.GetU32()
	return string(r.GetBytes(int(n))), nil
}

func main() {
	logger := kitlog.NewLogfmtLogger(os.Stderr)
	logger = level.NewFilter(logger, level.AllowInfo())

	basePath, err := os.MkdirTemp("", "stormdemo")
	if err != nil {
		level.Error(logger).Log("msg", "failed to create scratch dir", "err", err)
		os.Exit(1)
	}
	defer os.RemoveAll(basePath)

	cfg, err := storeconfig.New("demo", basePath)
	if err != nil {
		level.Error(logger).Log("msg", "invalid config", "err", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	store, err := storm.Open[string](cfg, putString, getString,
		storm.WithLogger[string](logger),
		storm.WithRegisterer[string](registry))
	if err != nil {
		level.Error(logger).Log("msg", "failed to open store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	greeting, err := store.Store("hello")
	if err != nil {
		level.Error(logger).Log("msg", "store failed", "err", err)
		os.Exit(1)
	}
	farewell, err := store.Store("goodbye")
	if err != nil {
		level.Error(logger).Log("msg", "store failed", "err", err)
		os.Exit(1)
	}

	if _, err := store.Update(greeting.ID, "hello, world"); err != nil {
		level.Error(logger).Log("msg", "update failed", "err", err)
		os.Exit(1)
	}
	if err := store.Delete(farewell.ID); err != nil {
		level.Error(logger).Log("msg", "delete failed", "err", err)
		os.Exit(1)
	}

	if err := store.Organize(); err != nil {
		level.Error(logger).Log("msg", "organize failed", "err", err)
		os.Exit(1)
	}

	values, err := store.Query().AllValues()
	if err != nil {
		level.Error(logger).Log("msg", "query failed", "err", err)
		os.Exit(1)
	}

	fmt.Printf("live values: %v\n", values)
	fmt.Printf("total space: %d, free space: %d, used space: %d\n",
		store.GetTotalSpace(), store.GetFreeSpace(), store.GetUsedSpace())
}
