/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: aggregators.go
Description: The three feature aggregators. Aggregator A merges the sniffer
output with the structural parser record across the full schema. Aggregator B
defaults and overlays the encryption columns for one "<family>_enc" section.
Aggregator C runs the byte-statistics engine and fills the statistic section.
Each aggregator only ever emits columns the schema declares.
*/

package features

import (
	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
	"github.com/kleascm/akaylee-featurizer/pkg/stats"
)

// commonKeys are the sniffer-provided columns merged by Aggregator A
var commonKeys = []string{"size_bytes", "log_size", "magic_ok", "format_family", "magic_family"}

// AggregatorA merges sniffer and structural features over the whole schema
type AggregatorA struct {
	schema *FeatureSchema
}

// NewAggregatorA creates the structural aggregator for a loaded schema
func NewAggregatorA(schema *FeatureSchema) *AggregatorA {
	return &AggregatorA{schema: schema}
}

// Collect builds the schema-ordered record from the sniffer result and the
// structural parser record. A nil parserFeats means the registry had no
// parser for the family; parser_ok and structure_consistent stay null.
func (a *AggregatorA) Collect(sniff *interfaces.SniffResult, parserFeats *interfaces.Record) *interfaces.Record {
	merged := interfaces.NewRecord()
	merged.Set("size_bytes", interfaces.IntValue(int64(sniff.SizeBytes)))
	merged.Set("log_size", interfaces.FloatValue(sniff.LogSize))
	merged.Set("magic_ok", interfaces.BoolValue(sniff.MagicOK))
	merged.Set("format_family", interfaces.StringValue(sniff.FormatFamily))
	merged.Set("magic_family", interfaces.StringValue(sniff.MagicFamily))

	if parserFeats != nil {
		merged.Merge(parserFeats)
	}
	merged.SetDefault("parser_ok", interfaces.Null())
	merged.SetDefault("structure_consistent", interfaces.Null())

	// Project onto the schema: every declared column, nulls for the rest
	out := interfaces.NewRecord()
	for _, col := range a.schema.Columns {
		if v, ok := merged.Get(col.Name); ok {
			out.Set(col.Name, v)
		} else {
			out.Set(col.Name, interfaces.Null())
		}
	}
	return out
}

// AggregatorB defaults and overlays one encryption section
type AggregatorB struct {
	schema *FeatureSchema
}

// NewAggregatorB creates the encryption aggregator for a loaded schema
func NewAggregatorB(schema *FeatureSchema) *AggregatorB {
	return &AggregatorB{schema: schema}
}

// Collect returns the section's columns defaulted to null with the encryption
// record's matching keys overlaid. An unknown section yields an empty record.
func (b *AggregatorB) Collect(section string, encFeats *interfaces.Record) *interfaces.Record {
	cols := b.schema.SectionColumns(section)
	out := interfaces.NewRecord()
	if len(cols) == 0 {
		return out
	}
	for _, name := range cols {
		out.Set(name, interfaces.Null())
	}
	if encFeats != nil {
		for _, name := range encFeats.Names() {
			if out.Has(name) {
				v, _ := encFeats.Get(name)
				out.Set(name, v)
			}
		}
	}
	return out
}

// Columns returns every encryption column the schema declares
func (b *AggregatorB) Columns() []string {
	return b.schema.EncColumns()
}

// AggregatorC fills the statistic section from the byte-statistics engine
type AggregatorC struct {
	schema *FeatureSchema
}

// NewAggregatorC creates the statistics aggregator for a loaded schema
func NewAggregatorC(schema *FeatureSchema) *AggregatorC {
	return &AggregatorC{schema: schema}
}

// Collect runs the single statistics pass over path and fills the declared
// statistic columns. Any read failure yields the all-null section.
func (c *AggregatorC) Collect(path string) *interfaces.Record {
	cols := c.schema.StatisticColumns()
	out := interfaces.NewRecord()
	if len(cols) == 0 {
		return out
	}
	for _, name := range cols {
		out.Set(name, interfaces.Null())
	}

	s, err := stats.Collect(path)
	if err != nil {
		return out
	}

	setMetric := func(name string, fn func() (float64, bool)) {
		if !out.Has(name) {
			return
		}
		if v, ok := fn(); ok {
			out.Set(name, interfaces.FloatValue(v))
		}
	}
	setMetric("entropy_global", s.EntropyGlobal)
	setMetric("min_entropy_global", s.MinEntropyGlobal)
	setMetric("entropy_head", s.EntropyHead)
	setMetric("entropy_tail", s.EntropyTail)
	setMetric("byte_chi2", s.ByteChi2)
	setMetric("ic_index", s.ICIndex)
	return out
}

// Columns returns the statistic column names the schema declares
func (c *AggregatorC) Columns() []string {
	return c.schema.StatisticColumns()
}
