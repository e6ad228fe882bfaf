/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: extract.go
Description: Feature-extraction context and per-file pipeline. Composes the
sniffer, the parser registry, the three aggregators and the schema into one
Extract call: sniff, structural parse, encryption parse when the structure is
sound, byte statistics, strict schema reconciliation and type normalization.
A schema mismatch is a configuration-level error distinct from any per-file
parse failure, which never surfaces as an error at all.
*/

package features

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
	"github.com/kleascm/akaylee-featurizer/pkg/registry"
	"github.com/kleascm/akaylee-featurizer/pkg/sniffer"
)

// SchemaMismatchError reports a divergence between the loaded schema and the
// merged feature record. It names every missing and extra column so the
// config problem can be fixed in one round.
type SchemaMismatchError struct {
	Path    string   // file being extracted when the mismatch surfaced
	Missing []string // schema columns absent from the record
	Extra   []string // record keys the schema does not declare
}

func (e *SchemaMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing columns: %v", e.Missing))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected columns: %v", e.Extra))
	}
	return fmt.Sprintf("schema mismatch for %s: %s", e.Path, strings.Join(parts, ", "))
}

// ExtractContext holds the per-process extraction state: the schema, the
// parser registry, the sniffer and the three aggregators. Build one context
// and reuse it across files.
type ExtractContext struct {
	schema   *FeatureSchema
	registry *registry.Registry
	sniffer  *sniffer.Sniffer
	aggA     *AggregatorA
	aggB     *AggregatorB
	aggC     *AggregatorC
	logger   *logrus.Logger
}

// NewExtractContext wires the extraction pipeline for a loaded schema and
// sniffer configuration
func NewExtractContext(schema *FeatureSchema, snifferConfig interfaces.SnifferConfig, logger *logrus.Logger) *ExtractContext {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &ExtractContext{
		schema:   schema,
		registry: registry.New(),
		sniffer:  sniffer.NewSniffer(snifferConfig),
		aggA:     NewAggregatorA(schema),
		aggB:     NewAggregatorB(schema),
		aggC:     NewAggregatorC(schema),
		logger:   logger,
	}
}

// Schema returns the context's loaded schema
func (ctx *ExtractContext) Schema() *FeatureSchema { return ctx.schema }

// Extract produces the full schema-ordered feature record for one file.
// Parser failures degrade to default records; only I/O failure on the initial
// sniff and schema mismatches return errors.
func (ctx *ExtractContext) Extract(path string) (*interfaces.Record, error) {
	snf, err := ctx.sniffer.Sniff(path)
	if err != nil {
		return nil, fmt.Errorf("failed to sniff %s: %w", path, err)
	}
	family := snf.FormatFamily

	// Structural parse, guarded by the parser contract: Parse never errors,
	// a missing parser leaves parser_ok null
	var parserFeats *interfaces.Record
	if parser, ok := ctx.registry.Structural(family); ok {
		parserFeats = parser.Parse(path)
		if parserFeats == nil {
			parserFeats = parser.Default()
		}
	}
	record := ctx.aggA.Collect(snf, parserFeats)

	// Encryption parse runs only on structurally sound containers
	encFamily := family + EncSectionSuffix
	var encFeats *interfaces.Record
	if v, ok := record.Get("parser_ok"); ok && v.Kind == interfaces.KindBool && v.Bool {
		if encParser, ok := ctx.registry.Encryption(encFamily); ok {
			encFeats = encParser.Parse(path)
		}
	}
	record.Merge(ctx.aggB.Collect(encFamily, encFeats))
	for _, name := range ctx.aggB.Columns() {
		record.SetDefault(name, interfaces.Null())
	}

	// Byte statistics always run, independent of parse outcome
	record.Merge(ctx.aggC.Collect(path))
	for _, name := range ctx.aggC.Columns() {
		record.SetDefault(name, interfaces.Null())
	}

	if err := ctx.reconcile(path, record); err != nil {
		return nil, err
	}

	ctx.logger.WithFields(logrus.Fields{
		"path":   path,
		"family": family,
	}).Debug("Extracted feature record")

	// Emit in schema order with normalized types
	out := interfaces.NewRecord()
	for _, col := range ctx.schema.Columns {
		v, _ := record.Get(col.Name)
		out.Set(col.Name, normalizeValue(v, col.Type))
	}
	return out, nil
}

// reconcile enforces the strict schema contract on the merged record
func (ctx *ExtractContext) reconcile(path string, record *interfaces.Record) error {
	var missing []string
	for _, col := range ctx.schema.Columns {
		if !record.Has(col.Name) {
			missing = append(missing, col.Name)
		}
	}
	var extra []string
	for _, name := range record.Names() {
		if !ctx.schema.Has(name) {
			extra = append(extra, name)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return &SchemaMismatchError{Path: path, Missing: missing, Extra: extra}
	}
	return nil
}

// normalizeValue coerces a value toward the declared column type. Nulls are
// preserved and any conversion failure passes the raw value through unchanged.
func normalizeValue(v interfaces.FeatureValue, typ string) interfaces.FeatureValue {
	if v.IsNull() {
		return v
	}
	switch strings.ToLower(typ) {
	case "bool":
		return v
	case "int":
		switch v.Kind {
		case interfaces.KindInt:
			return v
		case interfaces.KindFloat:
			return interfaces.IntValue(int64(v.Float))
		case interfaces.KindBool:
			if v.Bool {
				return interfaces.IntValue(1)
			}
			return interfaces.IntValue(0)
		case interfaces.KindString:
			if n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64); err == nil {
				return interfaces.IntValue(n)
			}
		}
	case "float":
		switch v.Kind {
		case interfaces.KindFloat:
			return v
		case interfaces.KindInt:
			return interfaces.FloatValue(float64(v.Int))
		case interfaces.KindBool:
			if v.Bool {
				return interfaces.FloatValue(1)
			}
			return interfaces.FloatValue(0)
		case interfaces.KindString:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil {
				return interfaces.FloatValue(f)
			}
		}
	case "string":
		switch v.Kind {
		case interfaces.KindString:
			return v
		case interfaces.KindBool:
			return interfaces.StringValue(strconv.FormatBool(v.Bool))
		case interfaces.KindInt:
			return interfaces.StringValue(strconv.FormatInt(v.Int, 10))
		case interfaces.KindFloat:
			return interfaces.StringValue(strconv.FormatFloat(v.Float, 'g', -1, 64))
		}
	}
	return v
}
