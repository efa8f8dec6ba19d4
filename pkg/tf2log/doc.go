// Package tf2log classifies and monitors the Team Fortress 2 console log.
//
// The game writes console.log when launched with -condebug. This package
// turns its lines into typed events for one watched player:
//   - Classify single lines with [Classify] or a [Classifier]
//   - Follow the live log with a [Watcher]
//   - Read a finished log with [ParseFile]
//   - Add rules from YAML with the [pattern] subpackage
//
// # Basic Usage
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	events, errs, err := tf2log.WatchWithOptions(ctx,
//	    tf2log.WithPlayer("Alice"),
//	    tf2log.WithExcludeKinds(tf2log.KindDamage),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    select {
//	    case ev, ok := <-events:
//	        if !ok {
//	            return
//	        }
//	        switch ev.Kind {
//	        case tf2log.KindKill:
//	            fmt.Printf("kill with %s, streak %d\n", ev.Subject, ev.Value())
//	        case tf2log.KindDeath:
//	            fmt.Printf("killed by %s\n", ev.Subject)
//	        }
//	    case err, ok := <-errs:
//	        if !ok {
//	            return
//	        }
//	        log.Printf("error: %v", err)
//	    }
//	}
//
// # Session State
//
// A [Classifier] carries the watched player's killstreak and current class.
// Kills by the player increment the streak and report it as the event
// magnitude; deaths, suicides, spawns, class and team changes, round ends
// and map changes reset it. Round, match, map and first-blood events are
// reported whoever they concern.
//
// # Following
//
// The default [FollowPoll] mode checks the file once per interval through a
// [LineSource], which detects truncation and rescans from the start.
// [FollowNotify] streams lines using filesystem notifications instead.
//
// # Custom Parsers
//
// Implement the [Parser] interface, or wrap a function with [ParserFunc], and
// pass it to [WithParser] or [WithParseParser] to replace the classifier. A
// custom parser can delegate to a [Classifier] and add its own events.
//
// # Disclaimer
//
// This is an unofficial tool and is not affiliated with Valve Corporation.
package tf2log
