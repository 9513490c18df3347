package transactions

// Fixture is a predefined set of segments.
type Fixture interface {
	Name() string
	Segments() []Segment
}

type fixture struct {
	name     string
	segments []Segment
}

func (f *fixture) Name() string        { return f.name }
func (f *fixture) Segments() []Segment { return f.segments }

// Segment names used by the predefined fixtures.
const (
	SegmentLoyal   = "loyal"
	SegmentRegular = "regular"
	SegmentDormant = "dormant"
)

var (
	// FixtureSegmented has three well separated segments. Dormant customers
	// transact least and spend least, so they form the high-risk cluster.
	FixtureSegmented = &fixture{
		name: "Segmented",
		segments: []Segment{
			{
				Name:            SegmentLoyal,
				Customers:       12,
				TxnsPerCustomer: 30,
				DaysAgo:         1,
				Amount:          5000,
				Categories:      []string{"financial_services", "airtime"},
			},
			{
				Name:            SegmentRegular,
				Customers:       12,
				TxnsPerCustomer: 10,
				DaysAgo:         30,
				Amount:          1500,
				Categories:      []string{"utility_bill", "airtime"},
			},
			{
				Name:            SegmentDormant,
				Customers:       12,
				TxnsPerCustomer: 1,
				DaysAgo:         80,
				Amount:          100,
				Categories:      []string{"loan", "data_bundles"},
			},
		},
	}

	// FixtureTiny has two customers and is too small to cluster into three.
	FixtureTiny = &fixture{
		name: "Tiny",
		segments: []Segment{
			{Name: "tiny", Customers: 2, TxnsPerCustomer: 2, DaysAgo: 3, Amount: 250},
		},
	}
)
