package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/csvbooks"
)

func main() {
	log := logger.New()

	var opts struct {
		Dialect string `short:"d" long:"dialect" default:"quoted" choice:"simple" choice:"quoted" description:"How rows are split into fields"`
		Skipped bool   `short:"s" long:"skipped" description:"Also print the rows that were dropped"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/parse-dataset [--dialect quoted] [--skipped] <path/to/books.csv>")
		os.Exit(1)
	}

	dialect, err := csvbooks.ParseDialect(opts.Dialect)
	if err != nil {
		log.Err(err).Fatal("dialect error")
	}

	var skipped []csvbooks.RowError
	books, err := csvbooks.LoadFile(args[0], csvbooks.ParseOptions{
		Dialect: dialect,
		OnSkip: func(e csvbooks.RowError) {
			skipped = append(skipped, e)
		},
	})
	if err != nil {
		log.Err(err).Fatal("dataset parse error")
	}

	for _, b := range books {
		fmt.Printf("%d\t%s\t%s\t%s\t%d\tcopies=%d available=%v\n", b.BookID, b.Title, b.Author, b.Category, b.PublishedYear, b.Copies, b.IsAvailable)
	}
	fmt.Printf("\nParsed %d books, skipped %d rows\n", len(books), len(skipped))

	if opts.Skipped {
		for _, e := range skipped {
			fmt.Println(e.Error())
		}
	}
}
