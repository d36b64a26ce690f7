package model

// Table is an immutable, ordered collection of generated samples together
// with the provenance needed to reproduce it.
type Table struct {
	samples []Sample
	seed    int64
	params  Params
}

func newTable(samples []Sample, seed int64, params Params) *Table {
	return &Table{samples: samples, seed: seed, params: params}
}

// TableFromSamples builds a table from pre-computed rows. Intended for tests
// and adapters; Generate is the normal constructor.
func TableFromSamples(samples []Sample, seed int64, params Params) *Table {
	copied := make([]Sample, len(samples))
	copy(copied, samples)
	return newTable(copied, seed, params)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.samples)
}

// At returns the i-th row in generation order.
func (t *Table) At(i int) Sample {
	return t.samples[i]
}

// Seed returns the seed the table was generated from.
func (t *Table) Seed() int64 {
	return t.seed
}

// Params returns the calibration the table was generated with.
func (t *Table) Params() Params {
	return t.params
}

// Samples returns a copy of all rows in generation order.
func (t *Table) Samples() []Sample {
	out := make([]Sample, len(t.samples))
	copy(out, t.samples)
	return out
}

// Column extracts one field across all rows, in generation order.
func (t *Table) Column(extract func(Sample) float64) []float64 {
	out := make([]float64, len(t.samples))
	for i, s := range t.samples {
		out[i] = extract(s)
	}
	return out
}
