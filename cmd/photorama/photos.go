package main

import (
	"github.com/spf13/cobra"

	"github.com/photoramax/photorama/internal/config"
	"github.com/photoramax/photorama/internal/di/providers"
)

func newSyncCmd(flags *config.Flags, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the remote listing and store new photos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPhotoStore(flags, func(ps *providers.PhotoStoreHandle) error {
				photos, err := await(ps.RefreshListing)
				if err != nil {
					return err
				}
				if *format != formatText {
					return writeStructured(cmd.OutOrStdout(), *format, photos)
				}
				if err := writePhotoList(cmd.OutOrStdout(), photos); err != nil {
					return err
				}
				return writePlain(cmd.ErrOrStderr(), "synced %d photos\n", len(photos))
			})
		},
	}
}

func newPhotosCmd(flags *config.Flags, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "photos",
		Short: "List local photos, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPhotoStore(flags, func(ps *providers.PhotoStoreHandle) error {
				photos, err := await(ps.FetchAllLocal)
				if err != nil {
					return err
				}
				if *format != formatText {
					return writeStructured(cmd.OutOrStdout(), *format, photos)
				}
				return writePhotoList(cmd.OutOrStdout(), photos)
			})
		},
	}
}
