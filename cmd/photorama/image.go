package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/photoramax/photorama/internal/config"
	"github.com/photoramax/photorama/internal/di/providers"
	"github.com/photoramax/photorama/internal/media/images"
)

func newImageCmd(flags *config.Flags, format *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "image <photo-id>",
		Short: "Fetch a photo's image, from the local cache when present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPhotoStore(flags, func(ps *providers.PhotoStoreHandle) error {
				photo, err := ps.Photo(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				img, err := await(func(cb func(*images.Image, error)) {
					ps.FetchImage(photo, cb)
				})
				if err != nil {
					return err
				}

				if out != "" {
					if err := os.WriteFile(out, img.Data, 0o600); err != nil {
						return err
					}
				}

				if *format != formatText {
					return writeStructured(cmd.OutOrStdout(), *format, img)
				}
				return writePlain(cmd.OutOrStdout(), "%s  %s %dx%d  %d bytes  %s\n",
					photo.ID, img.Format, img.Width, img.Height, len(img.Data), img.BlurHash)
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write the image bytes to this file")
	return cmd
}
