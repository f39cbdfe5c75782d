// Command star browses a Discourse forum the way a person would: open a
// topic, scroll through it at a reading pace, optionally like the posts on
// the way down. Login state persists in a per-site browser profile.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/zduu/star-auto/internal/app"
)

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var sessErr *app.SessionError
	if errors.As(err, &sessErr) {
		fmt.Fprintln(os.Stderr, "Run `starfix` to clean up and test the browser installation.")
		os.Exit(2)
	}
	os.Exit(1)
}
