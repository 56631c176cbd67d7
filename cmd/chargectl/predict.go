package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/liamcoop/chargecast/inference"
	"github.com/liamcoop/chargecast/internal/logger"
	"github.com/liamcoop/chargecast/modelstore"
)

// Exit codes for pipeline failures, by error kind.
var kindExitCodes = map[inference.ErrorKind]int{
	inference.KindValidation:       2,
	inference.KindComputation:      3,
	inference.KindModelUnavailable: 4,
	inference.KindSchemaMismatch:   5,
}

func predictCommand() *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "predict the charge for one applicant",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "age", Usage: "age in years", Required: true},
			&cli.StringFlag{Name: "sex", Usage: "female or male", Required: true},
			&cli.StringFlag{Name: "weight", Usage: "weight in kilograms", Required: true},
			&cli.StringFlag{Name: "feet", Usage: "height, feet part", Required: true},
			&cli.StringFlag{Name: "inches", Usage: "height, inches part (0-11)", Value: "0"},
			&cli.StringFlag{Name: "children", Usage: "number of children (0-5)", Value: "0"},
			&cli.StringFlag{Name: "smoker", Usage: "yes or no", Required: true},
			&cli.StringFlag{Name: "region", Usage: "northeast, northwest, southeast or southwest", Required: true},
			&cli.BoolFlag{Name: "explain", Usage: "print the feature vector"},
		},
		Action: runPredict,
	}
}

func runPredict(c *cli.Context) error {
	raw := inference.RawInput{
		Age:          c.String("age"),
		Sex:          c.String("sex"),
		WeightKg:     c.String("weight"),
		HeightFeet:   c.String("feet"),
		HeightInches: c.String("inches"),
		Children:     c.String("children"),
		Smoker:       c.String("smoker"),
		Region:       c.String("region"),
	}

	src, closeSource, err := modelstore.OpenSource(c.Context,
		c.String("source"), c.String("model-path"), c.String("database-url"), c.String("model-name"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer closeSource()

	adapter, err := inference.LoadModelAdapter(c.Context, src)
	if err != nil {
		return pipelineExit(err)
	}
	defer adapter.Close()

	predictor, err := inference.NewPredictor(adapter)
	if err != nil {
		return pipelineExit(err)
	}

	inf, err := predictor.Evaluate(raw)
	if err != nil {
		logger.Debug("prediction failed", "error", err)
		return pipelineExit(err)
	}

	logger.Trace("feature vector", "columns", inf.Features.Columns(), "values", inf.Features.Values())

	out := c.App.Writer
	if c.Bool("explain") {
		info, _ := adapter.Info()
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "model\t%s v%d\n", info.Name, info.Version)
		cols, values := inf.Features.Columns(), inf.Features.Values()
		for i := range cols {
			fmt.Fprintf(tw, "%s\t%g\n", cols[i], values[i])
		}
		fmt.Fprintf(tw, "log value\t%.6f\n", inf.LogValue)
		fmt.Fprintf(tw, "charges\t%s\n", inf.Result.Formatted)
		return tw.Flush()
	}

	fmt.Fprintln(out, inf.Result.Formatted)
	return nil
}

// pipelineExit turns a pipeline error into a message and a kind-specific
// exit code. Validation failures list every offending field.
func pipelineExit(err error) error {
	kind, ok := inference.KindOf(err)
	if !ok {
		return cli.Exit(err.Error(), 1)
	}

	msg := fmt.Sprintf("Error (%s): %v", kind, err)
	if fields := inference.FieldErrors(err); len(fields) > 0 {
		msg = fmt.Sprintf("Error (%s):", kind)
		for _, f := range fields {
			msg += fmt.Sprintf("\n  %s: %s", f.Field, f.Reason)
		}
	}
	return cli.Exit(msg, kindExitCodes[kind])
}
