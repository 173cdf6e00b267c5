package main

import (
	"github.com/spf13/cobra"

	"github.com/photoramax/photorama/internal/config"
	"github.com/photoramax/photorama/internal/di/providers"
	"github.com/photoramax/photorama/internal/domain"
)

func newTagsCmd(flags *config.Flags, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List all tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPhotoStore(flags, func(ps *providers.PhotoStoreHandle) error {
				tags, err := await(ps.FetchAllTags)
				if err != nil {
					return err
				}
				if *format != formatText {
					return writeStructured(cmd.OutOrStdout(), *format, tags)
				}
				return writeTagList(cmd.OutOrStdout(), tags)
			})
		},
	}
}

func newTagCmd(flags *config.Flags, format *string) *cobra.Command {
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPhotoStore(flags, func(ps *providers.PhotoStoreHandle) error {
				tag, err := await(func(cb func(*domain.Tag, error)) {
					ps.CreateTag(args[0], cb)
				})
				if err != nil {
					return err
				}
				if *format != formatText {
					return writeStructured(cmd.OutOrStdout(), *format, tag)
				}
				return writePlain(cmd.OutOrStdout(), "%s\n", tag.ID)
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list <photo-id>",
		Short: "List the tags of a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPhotoStore(flags, func(ps *providers.PhotoStoreHandle) error {
				photo, err := ps.Photo(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				tags, err := await(func(cb func([]*domain.Tag, error)) {
					ps.FetchPhotoTags(photo, cb)
				})
				if err != nil {
					return err
				}
				if *format != formatText {
					return writeStructured(cmd.OutOrStdout(), *format, tags)
				}
				return writeTagList(cmd.OutOrStdout(), tags)
			})
		},
	}

	tagCmd.AddCommand(
		createCmd,
		listCmd,
		newSetTagCmd(flags, "add", "Attach a tag to a photo", true),
		newSetTagCmd(flags, "remove", "Detach a tag from a photo", false),
	)
	return tagCmd
}

func newSetTagCmd(flags *config.Flags, use, short string, member bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <photo-id> <tag-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPhotoStore(flags, func(ps *providers.PhotoStoreHandle) error {
				photo, err := ps.Photo(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				tag, err := ps.Tag(cmd.Context(), args[1])
				if err != nil {
					return err
				}

				_, err = await(func(cb func(struct{}, error)) {
					ps.SetTag(photo, tag, member, func(err error) { cb(struct{}{}, err) })
				})
				return err
			})
		},
	}
}
