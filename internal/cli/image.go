package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-state/internal/model"
)

func init() {
	imageCmd := &cobra.Command{
		Use:   "image",
		Short: "Image cache",
	}

	putCmd := &cobra.Command{
		Use:   "put",
		Short: "Store an image by URL or inline base64",
		RunE:  runImagePut,
	}
	putCmd.Flags().StringP("key", "k", "", "Cache key (required)")
	putCmd.Flags().String("url", "", "Image URL")
	putCmd.Flags().String("base64", "", "Base64-encoded image data")
	putCmd.MarkFlagRequired("key")
	putCmd.MarkFlagsMutuallyExclusive("url", "base64")
	putCmd.MarkFlagsOneRequired("url", "base64")

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Look up a cached image",
		RunE:  runImageGet,
	}
	getCmd.Flags().StringP("key", "k", "", "Cache key (required)")
	getCmd.MarkFlagRequired("key")

	imageCmd.AddCommand(putCmd, getCmd)
	RootCmd.AddCommand(imageCmd)
}

func runImagePut(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("key")

	var img model.ImageData
	if cmd.Flags().Changed("url") {
		u, _ := cmd.Flags().GetString("url")
		img = model.ImageURL{URL: u}
	} else {
		b, _ := cmd.Flags().GetString("base64")
		img = model.ImageBase64{Data: b}
	}

	return withState(cmd, true, func(s *session) error {
		s.state.StoreImage(key, img)
		return printOK(cmd, "key", key)
	})
}

func runImageGet(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("key")
	return withState(cmd, false, func(s *session) error {
		img, found := s.state.StoredImage(key)
		if !found {
			return printJSON(cmd, map[string]any{"found": false})
		}
		if s.cfg.Format == "text" {
			switch v := img.(type) {
			case model.ImageURL:
				fmt.Fprintln(cmd.OutOrStdout(), v.URL)
			case model.ImageBase64:
				fmt.Fprintln(cmd.OutOrStdout(), v.Data)
			}
			return nil
		}
		j, err := model.EncodeImage(img)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{"found": true, "image": j})
	})
}
