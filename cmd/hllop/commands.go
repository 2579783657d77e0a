package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/influxdata/hllop"
	"github.com/influxdata/hllop/bolt"
	"github.com/influxdata/hllop/engine"
	"github.com/influxdata/hllop/inmem"
	"github.com/influxdata/hllop/kit/platform/errors"
	"github.com/influxdata/hllop/kit/prom"
	"github.com/influxdata/hllop/logger"
	"github.com/influxdata/hllop/operate"
	"github.com/influxdata/hllop/serializer"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// runtime holds what a subcommand needs to build and run batches.
type runtime struct {
	log      *zap.Logger
	reg      *prom.Registry
	builder  *operate.Builder
	stderr   io.Writer
	printing bool
	closers  []func() error
}

func (o *options) runtime(stderr io.Writer) (*runtime, error) {
	config := logger.Config{Format: o.logFormat, Level: o.logLevel}
	log, err := config.New(stderr)
	if err != nil {
		return nil, err
	}
	ser, err := serializer.New(o.serializer)
	if err != nil {
		return nil, err
	}

	reg := prom.NewRegistry(log.With(zap.String("service", "prom_registry")))
	metrics := operate.NewBuilderMetrics()
	reg.MustRegister(metrics)

	return &runtime{
		log: log,
		reg: reg,
		builder: operate.NewBuilder(log.With(zap.String("service", "builder")),
			operate.WithSerializer(ser),
			operate.WithMetrics(metrics)),
		stderr:   stderr,
		printing: o.printMetrics,
	}, nil
}

// onClose registers fn to run when the runtime closes. Functions run in
// reverse order of registration, after the metrics are printed.
func (r *runtime) onClose(fn func() error) {
	r.closers = append(r.closers, fn)
}

// close prints the metrics when asked to, releases everything registered
// with onClose and flushes the logger.
func (r *runtime) close() error {
	var err error
	if r.printing {
		err = r.reg.WriteText(r.stderr)
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, r.closers[i]())
	}
	r.closers = nil
	_ = r.log.Sync()
	return err
}

// descriptorError locates a build failure within a descriptor file.
type descriptorError struct {
	index int
	code  hllop.OpCode
	err   error
}

func (e *descriptorError) Error() string {
	return fmt.Sprintf("descriptor %d (%s): %v", e.index, e.code, e.err)
}

func (e *descriptorError) Unwrap() error {
	return e.err
}

// report formats e as a single line of the validate command.
func report(err error) string {
	loc := "descriptors"
	if e, ok := err.(*descriptorError); ok {
		loc = fmt.Sprintf("descriptor %d (%s)", e.index, e.code)
	}
	return fmt.Sprintf("%s: %s: %s", loc, errors.ErrorCode(err), errors.ErrorMessage(err))
}

// buildBatch builds every entry into a single batch, stopping at the first
// failure.
func (r *runtime) buildBatch(entries []entry) (*hllop.Batch, error) {
	batch := hllop.NewBatch(len(entries))
	for i, e := range entries {
		if err := r.builder.Build(e.Desc, e.Code, batch); err != nil {
			return nil, &descriptorError{index: i, code: e.Code, err: err}
		}
	}
	return batch, nil
}

func newBuildCommand(o *options, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "build <file>",
		Short: "Build a batch from a descriptor file and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			r, err := o.runtime(stderr)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, r.close()) }()

			entries, err := loadDescriptors(args[0])
			if err != nil {
				return err
			}
			batch, err := r.buildBatch(entries)
			if err != nil {
				return err
			}
			return writeYAML(stdout, summarize(batch))
		},
	}
}

func newValidateCommand(o *options, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check every descriptor of a file and report all failures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			r, err := o.runtime(stderr)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, r.close()) }()

			entries, err := loadDescriptors(args[0])
			if err != nil {
				return err
			}
			if err := validate(r.builder, entries); err != nil {
				for _, e := range multierr.Errors(err) {
					fmt.Fprintln(stdout, report(e))
				}
				return fmt.Errorf("%d of %d descriptors are invalid", len(multierr.Errors(err)), len(entries))
			}
			fmt.Fprintf(stdout, "%d descriptors are valid\n", len(entries))
			return nil
		},
	}
}

// validate builds every entry on its own and combines all failures.
func validate(b *operate.Builder, entries []entry) error {
	var errs error
	for i, e := range entries {
		if err := b.Build(e.Desc, e.Code, hllop.NewBatch(1)); err != nil {
			errs = multierr.Append(errs, &descriptorError{index: i, code: e.Code, err: err})
		}
	}
	return errs
}

func newOperateCommand(o *options, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "operate <file>",
		Short: "Build a batch from a descriptor file and run it against a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			r, err := o.runtime(stderr)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, r.close()) }()

			entries, err := loadDescriptors(args[0])
			if err != nil {
				return err
			}
			batch, err := r.buildBatch(entries)
			if err != nil {
				return err
			}

			store, err := r.openStore(cmd.Context(), o.boltPath)
			if err != nil {
				return err
			}
			return r.operate(cmd.Context(), store, o.key, batch, stdout)
		},
	}
}

// operate runs batch against the record under key and prints the results.
func (r *runtime) operate(ctx context.Context, store hllop.RecordStore, key string, batch *hllop.Batch, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := r.log.With(zap.String("key", key), zap.Uint64("digest", batch.Digest()))
	ctx = logger.NewContextWithLogger(ctx, log)

	log.Info("Operating on record", zap.Int("operations", batch.Len()))
	results, err := store.Operate(ctx, key, batch)
	if err != nil {
		log.Error("Failed to operate on record",
			zap.String("code", errors.ErrorCode(err)),
			zap.String("op", errors.ErrorOp(err)),
			zap.Error(err))
		return err
	}
	return writeYAML(w, printable(map[string]interface{}(results)))
}

// openStore opens the bolt store at path, or an in memory store when path
// is empty. A bolt store is closed with the runtime.
func (r *runtime) openStore(ctx context.Context, path string) (hllop.RecordStore, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	metrics := engine.NewMetrics()
	r.reg.MustRegister(metrics)
	e := engine.New(r.log.With(zap.String("service", "engine")), engine.WithMetrics(metrics))

	if path == "" {
		return inmem.NewRecordStore(r.log.With(zap.String("service", "store")), e), nil
	}

	s := bolt.NewRecordStore(r.log.With(zap.String("service", "bolt")), path, e)
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	r.onClose(s.Close)
	r.reg.MustRegister(s)
	return s, nil
}

type opSummary struct {
	Op            string        `yaml:"op"`
	Bin           string        `yaml:"bin"`
	Ctx           string        `yaml:"ctx,omitempty"`
	Policy        string        `yaml:"policy,omitempty"`
	IndexBitCount int           `yaml:"index_bit_count,omitempty"`
	MHBitCount    int           `yaml:"mh_bit_count,omitempty"`
	Values        []interface{} `yaml:"values,omitempty"`
}

type batchSummary struct {
	Digest     string      `yaml:"digest"`
	Operations []opSummary `yaml:"operations"`
}

func summarize(batch *hllop.Batch) batchSummary {
	s := batchSummary{
		Digest:     fmt.Sprintf("%016x", batch.Digest()),
		Operations: make([]opSummary, 0, batch.Len()),
	}
	for _, op := range batch.Operations() {
		index, mh := hllop.OperationBitCounts(op)
		sum := opSummary{
			Op:            op.OpCode().String(),
			Bin:           op.BinName(),
			IndexBitCount: index,
			MHBitCount:    mh,
		}
		if len(op.Path()) > 0 {
			sum.Ctx = op.Path().String()
		}
		if p := hllop.OperationPolicy(op); p != nil {
			sum.Policy = p.Flags.String()
		}
		if values := hllop.OperationValues(op); len(values) > 0 {
			sum.Values = printable(values).([]interface{})
		}
		s.Operations = append(s.Operations, sum)
	}
	return s
}

// printable rewrites byte values as base64 strings for display.
func printable(v interface{}) interface{} {
	switch x := v.(type) {
	case hllop.HLLValue:
		return "hll:" + base64.StdEncoding.EncodeToString(x)
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	case hllop.Blob:
		return fmt.Sprintf("%s:%s", x.Type, base64.StdEncoding.EncodeToString(x.Data))
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, it := range x {
			out[i] = printable(it)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, it := range x {
			out[k] = printable(it)
		}
		return out
	}
	return v
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
