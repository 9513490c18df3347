package features

import "github.com/Veraticus/credit-risk-model/internal/model"

// Date-part columns derived from the transaction timestamp.
const (
	DateSourceColumn = model.ColStartTime
	ColHour          = "TransactionHour"
	ColDay           = "TransactionDay"
	ColMonth         = "TransactionMonth"
	ColYear          = "TransactionYear"
)

// DateParts replaces the timestamp column with hour, day, month and year.
// Unparseable or missing timestamps yield NaN parts. It has no fitted state.
type DateParts struct {
	Source string `json:"source"`
}

func (d *DateParts) kind() StageKind { return StageDateParts }

func (d *DateParts) fit(*Frame) (stage, error) {
	fitted := *d
	return &fitted, nil
}

func (d *DateParts) apply(f *Frame) (*Frame, error) {
	out := f.derive()
	raw := f.categoricalOrNull(d.Source)

	hour := nullNumeric(f.Len())
	day := nullNumeric(f.Len())
	month := nullNumeric(f.Len())
	year := nullNumeric(f.Len())
	for i, s := range raw {
		ts, ok := model.ParseTimestamp(s)
		if !ok {
			continue
		}
		hour[i] = float64(ts.Hour())
		day[i] = float64(ts.Day())
		month[i] = float64(ts.Month())
		year[i] = float64(ts.Year())
	}

	out.drop(d.Source)
	out.setNumeric(ColHour, hour)
	out.setNumeric(ColDay, day)
	out.setNumeric(ColMonth, month)
	out.setNumeric(ColYear, year)
	return out, nil
}

// Date parts stay on the frame for inspection but do not feed the model.
func (d *DateParts) outputs() []string { return nil }
