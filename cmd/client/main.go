// Command client plays a scripted dialogue from a dialogue gateway:
// it streams each line's audio frames, types the text out in sync, and
// follows the script to the next node.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
