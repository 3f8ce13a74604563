package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/config"
	"github.com/vitrine-studio/vitrine/internal/gemini"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
	"github.com/vitrine-studio/vitrine/internal/plan"
	"github.com/vitrine-studio/vitrine/internal/publish"
	"github.com/vitrine-studio/vitrine/internal/stages"
)

// buildPipeline wires every stage executor into a pipeline. seed drives the
// partitioner; zero means a fresh random plan per run.
func buildPipeline(ctx context.Context, cfg *config.ProjectConfig, store artifact.Store, log *zap.Logger, seed int64) (*orchestrator.Pipeline, error) {
	gen, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	partitioner := plan.NewPartitioner(rand.New(rand.NewSource(seed)))

	pipe := orchestrator.NewPipeline(log)
	fan := orchestrator.NewFanOut(cfg.AssetConcurrency, pipe.Reporter().Emit)

	register := func(stage orchestrator.Stage, exec orchestrator.StageExecutor) {
		pipe.Register(stage, &stages.StatusRecorder{Store: store, Stage: stage, Exec: exec})
	}

	register(orchestrator.StageOrderIntake, &stages.Intake{
		Orders: &stages.OrderClient{BaseURL: cfg.OrderAPI.BaseURL, APIKey: cfg.OrderAPI.APIKey},
		Store:  store,
		Log:    log,
	})
	register(orchestrator.StageInformationArchitecture, &stages.Architect{
		Partitioner: partitioner,
		Store:       store,
	})
	register(orchestrator.StageNavigation, &stages.Navigation{Store: store})
	register(orchestrator.StageWireframes, &stages.Wireframes{
		Gen:    gen,
		Model:  cfg.Models.Flash,
		Store:  store,
		FanOut: fan,
	})
	register(orchestrator.StageStoryboard, &stages.StoryboardStage{
		Gen:   gen,
		Model: cfg.Models.Pro,
		Store: store,
	})
	register(orchestrator.StageAssets, &stages.Assets{
		Gen:        gen,
		FlashModel: cfg.Models.Flash,
		ImageModel: cfg.Models.Image,
		EditModel:  cfg.Models.ImageEdit,
		Store:      store,
		FanOut:     fan,
	})
	register(orchestrator.StageCoding, &stages.Coding{
		Gen:       gen,
		Model:     cfg.Models.Pro,
		Store:     store,
		OutputDir: cfg.OutputDir,
	})

	if cfg.Storage.Bucket != "" {
		uploader, err := publish.NewS3Uploader(publish.S3Config{
			Endpoint:      cfg.Storage.Endpoint,
			AccessKey:     cfg.Storage.AccessKey,
			SecretKey:     cfg.Storage.SecretKey,
			Bucket:        cfg.Storage.Bucket,
			Secure:        cfg.Storage.Secure,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		register(orchestrator.StagePublish, &stages.Publish{
			Uploader: uploader,
			BaseURL:  cfg.Storage.PublicBaseURL,
			Store:    store,
		})
	}

	return pipe, nil
}
