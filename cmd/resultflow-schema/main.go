// Package main implements the resultflow schema tool. It validates a
// channel-tree declaration and exports the channel metadata document that
// plotting front ends consume.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/c360/resultflow/schema"
)

func main() {
	schemaPath := flag.String("schema", "", "Path to the channel schema YAML file (required)")
	outPath := flag.String("out", "", "Output path for the metadata JSON; stdout when empty")
	validateOnly := flag.Bool("validate", false, "Validate the schema and exit")
	flag.Parse()

	if *schemaPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.Fatalf("Failed to read schema: %v", err)
	}

	s, err := schema.Load(data)
	if err != nil {
		log.Fatalf("Invalid schema: %v", err)
	}
	log.Printf("Schema valid: %d channels", len(s.Channels))

	if *validateOnly {
		return
	}

	channels, err := s.Build()
	if err != nil {
		log.Fatalf("Failed to build channels: %v", err)
	}

	doc, err := schema.DescribeAll(channels)
	if err != nil {
		log.Fatalf("Failed to describe channels: %v", err)
	}

	var pretty json.RawMessage = doc
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		log.Fatalf("Failed to format output: %v", err)
	}

	if *outPath == "" {
		fmt.Println(string(out))
		return
	}
	if err := os.WriteFile(*outPath, append(out, '\n'), 0o644); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
	log.Printf("Wrote %s", *outPath)
}
