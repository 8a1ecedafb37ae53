// Package prince drives the Prince typesetting engine from Go.
//
// # Quick Start
//
// Start a control session, convert, and stop when done:
//
//	ctl, err := prince.NewControl()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := ctl.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer ctl.Stop()
//
//	job := &prince.Job{InputType: prince.InputHTML}
//	job.AddInputString("<h1>Hello</h1>")
//
//	var pdf bytes.Buffer
//	ok, err := ctl.Convert(ctx, job, &pdf)
//
// ok reports the engine's verdict; err reports everything else.
//
// # Strategies
//
// Control keeps one engine process alive and sends it jobs over its
// standard streams, framed as chunks:
//
//	TAG LEN\n PAYLOAD \n
//
// The session starts with a ver (or err) chunk, then each job is a job chunk
// with a JSON descriptor followed by one dat chunk per attached resource.
// The engine answers with an optional pdf, png or jpg chunk and a log chunk,
// or with an err chunk. An end chunk closes the session.
//
// Prince starts one process per conversion and passes everything as
// command-line flags. It supports a few options the control protocol
// cannot carry (marked "one-shot" on Job) as well as rasterization.
//
// Both implement Converter and take the same options:
//
//	prince.NewControl(
//	    prince.WithEnginePath("/opt/prince/bin/prince"),
//	    prince.WithBaseOptions(prince.BaseOptions{NoNetwork: true}),
//	    prince.WithEvents(sink),
//	    prince.WithLogger(logger),
//	)
//
// # Resources
//
// Inputs, scripts, stylesheets and attachments can live in memory. The Add
// methods of Job attach them and reference them as job-resource:<n> URLs.
// Control streams them as dat chunks; Prince stages them in a private
// temporary directory removed after the run.
//
// # Messages
//
// The engine reports warnings and errors through a structured log.
// ReadMessages parses it; an EventSink set with WithEvents receives every
// message of every job, in order.
//
// # Parallel Processing
//
// A Control runs one job at a time. For batch conversion, use ControlPool
// to manage several sessions:
//
//	pool := prince.NewControlPool(prince.ResolvePoolSize(0))
//	defer pool.Close()
//
//	ok, err := pool.Convert(ctx, job, &pdf)
//
// # Errors
//
// Runtime failures match ErrStartup, ErrProtocol, ErrConversion or ErrIO
// with errors.Is. Calls made in the wrong session state match ErrLifecycle.
// Nothing is retried.
package prince
