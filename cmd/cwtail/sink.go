package main

import "io"

// consoleSink writes each line as it arrives so tailed output shows up
// immediately.
type consoleSink struct {
	w io.Writer
}

func (s consoleSink) Write(line string) error {
	_, err := io.WriteString(s.w, line+"\n")
	return err
}
