package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/tts"
)

func newSpeakCmd() *cobra.Command {
	var (
		textFile string
		voice    string
		rate     int
		pitch    int
		provider string
		output   string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "speak [text]",
		Short: "Synthesize text to an audio file",
		Long: `Speak synthesizes the given text through the provider chain and
writes the audio to a file. Text comes from the arguments, from a file
with --file, or from stdin with --file -.`,
		Example: `  voxctl speak "Dobrý den, jak se máte?"
  voxctl speak --voice cs-CZ-Wavenet-B --rate 20 -o greeting.mp3 "Vítejte"
  cat chapter.txt | voxctl speak --file - -o chapter.mp3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := gatherText(args, textFile)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			chain, err := tts.NewChainFromConfig(cfg, tts.NewDependencies(cfg))
			if err != nil {
				return err
			}

			req := &core.SynthesisRequest{
				Text:              text,
				Voice:             voice,
				Rate:              rate,
				Pitch:             pitch,
				PreferredProvider: provider,
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			result, err := chain.Synthesize(ctx, req)
			if err != nil {
				return err
			}
			if !result.Success {
				for _, attempt := range result.Attempts {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", attempt.Provider, attempt.Error)
				}
				return fmt.Errorf("synthesis failed: %s", result.ErrorMessage)
			}

			path := output
			if path == "" {
				path = "speech" + extensionFor(result.Audio.ContentType)
			}
			if err := writeAudioFile(result.Audio, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (provider %s, %d ms",
				path, result.ProviderUsed, result.GenerationTime.Milliseconds())
			if len(result.Attempts) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", %d failed attempts", len(result.Attempts))
			}
			fmt.Fprintln(cmd.OutOrStdout(), ")")
			return nil
		},
	}

	cmd.Flags().StringVar(&textFile, "file", "", "read text from this file ('-' for stdin)")
	cmd.Flags().StringVar(&voice, "voice", "", "voice name, e.g. cs-CZ-Wavenet-A")
	cmd.Flags().IntVar(&rate, "rate", 0, "speaking rate adjustment, -100 to 100")
	cmd.Flags().IntVar(&pitch, "pitch", 0, "pitch adjustment, -100 to 100")
	cmd.Flags().StringVar(&provider, "provider", "", "try this provider first")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default speech.mp3 or speech.wav)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall synthesis timeout (0 for none)")

	return cmd
}

func gatherText(args []string, textFile string) (string, error) {
	switch {
	case textFile == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	case textFile != "":
		data, err := os.ReadFile(textFile)
		if err != nil {
			return "", fmt.Errorf("reading text file: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", fmt.Errorf("no text given: pass it as arguments or with --file")
	}
}

func extensionFor(contentType string) string {
	if contentType == core.ContentTypeWAV {
		return ".wav"
	}
	return ".mp3"
}

// writeAudioFile persists chain output to the requested path. File
// audio is moved rather than copied when the filesystem allows it.
func writeAudioFile(audio *core.AudioData, path string) error {
	if audio.InMemory() {
		if err := os.WriteFile(path, audio.Data, 0o644); err != nil {
			return fmt.Errorf("writing audio: %w", err)
		}
		return nil
	}

	if err := os.Rename(audio.Path, path); err == nil {
		return nil
	}

	// Rename fails across filesystems; fall back to a copy.
	src, err := os.Open(audio.Path)
	if err != nil {
		return fmt.Errorf("opening synthesized audio: %w", err)
	}
	defer func() {
		_ = src.Close()
		_ = os.Remove(audio.Path)
	}()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("writing audio: %w", err)
	}
	return dst.Close()
}
