package history

// Timeframe is a symbolic chart range selected by the user.
type Timeframe string

const (
	TF1D  Timeframe = "1D"
	TF1W  Timeframe = "1W"
	TF1M  Timeframe = "1M"
	TF3M  Timeframe = "3M"
	TF6M  Timeframe = "6M"
	TF1Y  Timeframe = "1Y"
	TFAll Timeframe = "ALL"
)

// defaultDays is used for timeframes outside the known set.
const defaultDays = 30

// Days maps the timeframe to its fixed day count. Unknown values fall
// back to the 30-day mapping rather than failing.
func (tf Timeframe) Days() int {
	switch tf {
	case TF1D:
		return 1
	case TF1W:
		return 7
	case TF1M:
		return 30
	case TF3M:
		return 90
	case TF6M:
		return 180
	case TF1Y:
		return 365
	case TFAll:
		return 1825
	default:
		return defaultDays
	}
}
