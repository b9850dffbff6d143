package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/redis.v5"

	"github.com/xuechao-chen/RegressionForest/treestore"
)

type exportCmdConfig struct {
	*rootCmdConfig
	modelInput string
	redisAddr  string
	redisDB    int
	prefix     string
	codec      string
	output     string
}

func exportCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &exportCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the trees of a forest",
		Long:  `Export every tree of a fitted forest as a flat record, either to a redis DB or to a file.`,
		Run: func(cmd *cobra.Command, args []string) {
			m, err := loadModel(config.modelInput)
			if err != nil {
				fatal(2, err)
			}
			codec, err := treestore.CodecFor(config.codec)
			if err != nil {
				fatal(1, err)
			}

			ctx := context.Background()
			if config.redisAddr == "" {
				o, err := createOutput(config.output)
				if err != nil {
					fatal(3, err)
				}
				defer o.Close()
				if err := writeRecords(ctx, o, m, codec); err != nil {
					fatal(3, err)
				}
				config.Logf("Wrote %d trees", len(m.Reg.TreeIDs))
				return
			}

			prefix := config.prefix
			if prefix == "" {
				prefix = "regforest:" + m.Reg.ModelID
			}
			config.Logf("Exporting %d trees to redis at %s under %s...", len(m.Reg.Trees), config.redisAddr, prefix)
			rc := redis.NewClient(&redis.Options{Addr: config.redisAddr, DB: config.redisDB})
			s := treestore.NewRedisStore(rc, prefix, codec)
			defer s.Close(ctx)
			n, err := treestore.Export(ctx, s, m.Reg.ModelID, m.Reg.TreeIDs, m.Reg.Trees)
			if err != nil {
				fatal(3, fmt.Sprintf("exported %d of %d trees:", n, len(m.Reg.Trees)), err)
			}
			config.Logf("Exported %d trees", n)
		},
	}
	cmd.Flags().StringVarP(&(config.modelInput), "model", "f", "rf.model", "path to a fitted model")
	cmd.Flags().StringVar(&(config.redisAddr), "redis", "", "address (host:port) of the redis DB to export trees to")
	cmd.Flags().IntVar(&(config.redisDB), "redis-db", 0, "redis DB number")
	cmd.Flags().StringVar(&(config.prefix), "prefix", "", "prefix for the redis keys (defaults to regforest:MODEL_ID)")
	cmd.Flags().StringVar(&(config.codec), "codec", "json", "record encoding: json or bson")
	cmd.Flags().StringVarP(&(config.output), "output", "o", "", "path to a file the records are written to when no redis DB is given: one JSON document per line, or BSON documents back to back (defaults to STDOUT)")
	return cmd
}

// writeRecords writes one encoded record per tree to w. JSON records are
// newline delimited; BSON documents carry their own length and are written
// back to back.
func writeRecords(ctx context.Context, w io.Writer, m *Model, codec treestore.Codec) error {
	s := treestore.NewMemoryStore()
	defer s.Close(ctx)
	if _, err := treestore.Export(ctx, s, m.Reg.ModelID, m.Reg.TreeIDs, m.Reg.Trees); err != nil {
		return err
	}

	_, delimited := codec.(treestore.JSONCodec)
	for _, id := range m.Reg.TreeIDs {
		r, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		data, err := codec.Encode(r)
		if err != nil {
			return err
		}
		if delimited {
			data = append(data, '\n')
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing tree %d: %v", id, err)
		}
	}
	return nil
}
