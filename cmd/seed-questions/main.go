package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/stemsi/submission-portal/internal/config"
	"github.com/stemsi/submission-portal/internal/database"
	"github.com/stemsi/submission-portal/internal/logger"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository"
	"github.com/stemsi/submission-portal/internal/service"
	"gopkg.in/yaml.v3"
)

// Each YAML file holds one or more documents of the form:
//
//	category: Frontend Developer
//	questions:
//	  - question: Which tag links a stylesheet?
//	    options: ["<style>", "<link>", "<css>"]
//	    correctAnswer: 1
//	    difficulty: easy
func main() {
	dryRun := flag.Bool("dry-run", false, "parse the files without writing")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: seed-questions [-dry-run] <file.yaml>...")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	var sets []model.ReplaceQuestionsRequest
	for _, path := range flag.Args() {
		parsed, err := readFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to read question file")
		}
		sets = append(sets, parsed...)
	}

	if *dryRun {
		for _, set := range sets {
			fmt.Printf("%s: %d questions\n", model.CanonicalRole(set.Category), len(set.Questions))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionService := service.NewQuestionService(repository.NewQuestionRepository(pool), log)
	for _, set := range sets {
		questions, err := questionService.ReplaceCategory(ctx, set)
		if err != nil {
			log.Fatal().Err(err).Str("category", set.Category).Msg("Failed to seed questions")
		}
		fmt.Printf("%s: %d questions seeded\n", model.CanonicalRole(set.Category), len(questions))
	}
}

func readFile(path string) ([]model.ReplaceQuestionsRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sets []model.ReplaceQuestionsRequest
	dec := yaml.NewDecoder(f)
	for {
		var set model.ReplaceQuestionsRequest
		err := dec.Decode(&set)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		if set.Category == "" {
			return nil, fmt.Errorf("document %d: category is required", len(sets)+1)
		}
		sets = append(sets, set)
	}
	return sets, nil
}
