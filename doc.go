// Package dudect detects timing side channels by comparing execution-time
// samples of two input classes with a battery of online Welch's t-tests.
//
// Measurements of class Baseline (fixed inputs) and class Modified
// (random inputs) are consumed in chunks. The first chunk places 100
// cropping thresholds, exponentially spaced towards the fast end of the
// timing distribution. Every later chunk feeds 102 tests: one on raw
// timings, one per cropping threshold, and one second-order test on
// centered squares. After each chunk the largest |t| decides.
//
// # Usage
//
// Replaying a recorded trace of "<label>;<cycles>" lines:
//
//	verdict, err := dudect.RunFile(ctx, "trace.csv",
//	    dudect.WithExpectedRecords(20_000),
//	    dudect.WithChunkSize(10_000),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Exit(verdict.State.ExitCode())
//
// Measuring live, one round at a time:
//
//	src, _ := dudect.NewLiveSource(
//	    dudect.NewZeroGenerator(0),
//	    dudect.FuncOperation(func(input []byte) { myCryptoFunction(input) }),
//	    32,
//	    dudect.WithMaxSamples(1_000_000),
//	)
//	sess, _ := dudect.NewSession(src)
//	for {
//	    v, err := sess.Round(ctx)
//	    if err != nil || v.State.Terminal() {
//	        break
//	    }
//	}
//
// # Verdicts
//
// A session never certifies constant-time behaviour. Each round returns
// NoLeakageEvidenceYet, LeakageFound (max |t| above 10, or above 500 for
// SeverityOverwhelming) or DataExhausted when the source ran dry first.
package dudect
