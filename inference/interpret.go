package inference

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// maxCents is the largest whole number of cents a float64 holds exactly.
const maxCents = 1 << 53

// Interpreter inverts the model's log-scale output into a currency amount.
type Interpreter struct {
	printer *message.Printer
	symbol  string
}

// NewInterpreter formats amounts as US dollars with thousands separators.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		printer: message.NewPrinter(language.AmericanEnglish),
		symbol:  "$",
	}
}

// Interpret computes e^logValue and formats it to two decimals.
func (i *Interpreter) Interpret(logValue float64) (PredictionResult, error) {
	if math.IsNaN(logValue) || math.IsInf(logValue, 0) {
		return PredictionResult{}, &ComputationError{Reason: "inverse transform", Err: ErrNonFiniteOutput}
	}

	cost := math.Exp(logValue)
	if math.IsInf(cost, 0) || cost*100 > maxCents {
		return PredictionResult{}, &ComputationError{Reason: "inverse transform", Err: ErrAmountOutOfRange}
	}

	amount, err := decimal.NewFromString(strconv.FormatFloat(cost, 'f', 2, 64))
	if err != nil {
		return PredictionResult{}, &ComputationError{Reason: "inverse transform", Err: err}
	}

	return PredictionResult{
		LogValue:  logValue,
		Amount:    amount,
		Formatted: i.symbol + i.printer.Sprintf("%.2f", amount.InexactFloat64()),
	}, nil
}
