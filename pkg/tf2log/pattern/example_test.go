package pattern_test

import (
	"fmt"
	"log"

	"github.com/tf2obs/tf2obs-go/pkg/tf2log"
	"github.com/tf2obs/tf2obs-go/pkg/tf2log/pattern"
)

func ExampleCompile() {
	rf, err := pattern.LoadBytes([]byte(`version: 1
rules:
  - id: plugin-streak
    kind: kill
    regex: '^\[streak\] {actor} fragged {target}{tail}'
`))
	if err != nil {
		log.Fatal(err)
	}
	rules, err := pattern.Compile(rf)
	if err != nil {
		log.Fatal(err)
	}

	c := tf2log.NewClassifier("Alice", rules...)
	ev, ok := c.Classify("[streak] Alice fragged Bob.")
	fmt.Println(ok, ev.Kind, ev.Target, ev.Value())
	// Output: true kill Bob 1
}
