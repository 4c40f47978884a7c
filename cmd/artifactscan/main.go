// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	"github.com/installerscan/installerscan/analyser"
	"github.com/installerscan/installerscan/download"
)

var (
	concurrency int
	verbose     bool
)

func scan(cmd *cobra.Command, args []string) {
	logger := log.NewStdLogger(os.Stderr)
	if !verbose {
		logger = log.NewStdLogger(io.Discard)
	}
	helper := log.NewHelper(log.NewFilter(logger, log.FilterLevel(log.LevelError)))

	client := download.NewClient()
	results, errs := client.Download(context.Background(), args, concurrency)

	az := analyser.New(&analyser.Options{Logger: logger})

	var scanned []interface{}
	for i, df := range results {
		if errs[i] != nil {
			helper.Errorf("%v", errs[i])
			continue
		}
		defer os.Remove(df.Path)

		analysed, err := az.Analyze(analyser.Request{
			Path:         df.Path,
			Filename:     df.Filename,
			URL:          df.URL,
			SHA256:       df.SHA256,
			LastModified: df.LastModified,
		})
		if err != nil {
			helper.Errorf("analyse %s: %v", df.URL, err)
			continue
		}
		scanned = append(scanned, analysed)
	}

	out, err := json.MarshalIndent(scanned, "", "  ")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "artifactscan",
		Short: "Downloads and classifies Windows installer artifacts",
		Long:  "artifactscan downloads installer artifacts over HTTP and extracts their installer family, architecture, hash, and embedded version metadata.",
		Run: func(cmd *cobra.Command, args []string) {
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Long:  "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print("You are using version 0.0.1")
		},
	}

	var scanCmd = &cobra.Command{
		Use:   "scan [urls...]",
		Short: "Downloads and analyses one or more installer URLs",
		Long:  "Downloads each URL concurrently, then classifies and extracts metadata from the resulting files",
		Args:  cobra.MinimumNArgs(1),
		Run:   scan,
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scanCmd)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	scanCmd.Flags().IntVarP(&concurrency, "concurrency", "c", runtime.NumCPU(), "maximum concurrent downloads")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
