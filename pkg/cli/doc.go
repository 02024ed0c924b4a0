/*
Package cli provides shared helpers for the verdict command-line tool.

Output Formatting:

Commands that support machine-readable output render their result structs
through a Formatter:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, results); err != nil {
		return err
	}

Progress Reporting:

Long runs (such as bench) report progress in place:

	progress := cli.NewProgressReporter(os.Stdout)
	progress.Start(total)
	for i := 0; i < total; i++ {
		// do work
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

Interruptible commands derive their context from the signal handler so
Ctrl-C stops the run cleanly:

	ctx := cli.SetupSignalHandler()
*/
package cli
