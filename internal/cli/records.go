package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/communityboard/board-system/internal/client"
	"github.com/communityboard/board-system/internal/client/gateway"
	"github.com/communityboard/board-system/internal/core/domain"
)

// form holds every record flag; each table registers the ones it uses.
type form struct {
	title       string
	description string
	kind        string
	location    string
	contact     string
	salary      string
	content     string
	image       string
	imageFile   string
}

const (
	fTitle       = "title"
	fDescription = "description"
	fKind        = "type"
	fLocation    = "location"
	fContact     = "contact"
	fSalary      = "salary"
	fContent     = "content"
	fImage       = "image-url"
	fImageFile   = "image-file"
)

func (f *form) register(cmd *cobra.Command, fields []string, kinds string) {
	fs := cmd.Flags()
	for _, name := range fields {
		switch name {
		case fTitle:
			fs.StringVar(&f.title, fTitle, "", "title")
		case fDescription:
			fs.StringVar(&f.description, fDescription, "", "description")
		case fKind:
			fs.StringVar(&f.kind, fKind, "", "kind: "+kinds)
		case fLocation:
			fs.StringVar(&f.location, fLocation, "", "where (empty clears it on update)")
		case fContact:
			fs.StringVar(&f.contact, fContact, "", "contact details (empty clears it on update)")
		case fSalary:
			fs.StringVar(&f.salary, fSalary, "", "salary range (empty clears it on update)")
		case fContent:
			fs.StringVar(&f.content, fContent, "", "article body")
		case fImage:
			fs.StringVar(&f.image, fImage, "", "image URL")
		case fImageFile:
			fs.StringVar(&f.imageFile, fImageFile, "", "upload a local image and use its URL")
		}
	}
}

// set returns a pointer to value when the flag was given on the command
// line, nil otherwise.
func set(cmd *cobra.Command, name string, value *string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v := *value
	return &v
}

// resolveImage uploads --image-file, if given, and stores the URL in
// f.image.
func (f *form) resolveImage(cmd *cobra.Command, b *Backend) error {
	if f.imageFile == "" {
		return nil
	}
	if b.Images == nil {
		return fmt.Errorf("image upload is not available")
	}
	file, err := os.Open(f.imageFile)
	if err != nil {
		return err
	}
	defer file.Close()

	url, err := b.Images.UploadImage(cmd.Context(), f.imageFile, file)
	if err != nil {
		return err
	}
	f.image = url
	if err := cmd.Flags().Set(fImage, url); err != nil {
		return err
	}
	return nil
}

// tableDef describes how one table's flags become drafts and patches.
type tableDef[R domain.Record, D domain.Draft[R], P domain.Patch[R]] struct {
	use     string
	short   string
	fields  []string
	kinds   string
	gateway func(*client.Board) *gateway.Gateway[R, D, P]
	draft   func(*form) D
	patch   func(*cobra.Command, *form) P
}

func tableCmd[R domain.Record, D domain.Draft[R], P domain.Patch[R]](a *app, def tableDef[R, D, P]) *cobra.Command {
	cmd := &cobra.Command{Use: def.use, Short: def.short}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List rows, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, done, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			rows, err := def.gateway(b.Board).List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, rows)
		},
	})

	var createForm form
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a row owned by the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, done, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := createForm.resolveImage(cmd, b); err != nil {
				return err
			}
			row, err := def.gateway(b.Board).Create(cmd.Context(), def.draft(&createForm))
			if err != nil {
				return err
			}
			return printJSON(cmd, row)
		},
	}
	createForm.register(create, def.fields, def.kinds)
	cmd.AddCommand(create)

	var updateForm form
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the given fields of a row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, done, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := updateForm.resolveImage(cmd, b); err != nil {
				return err
			}
			row, err := def.gateway(b.Board).Update(cmd.Context(), args[0], def.patch(cmd, &updateForm))
			if err != nil {
				return err
			}
			return printJSON(cmd, row)
		},
	}
	updateForm.register(update, def.fields, def.kinds)
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, done, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := def.gateway(b.Board).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"deleted": args[0]})
		},
	})

	return cmd
}

func newLostFoundCmd(a *app) *cobra.Command {
	return tableCmd(a, tableDef[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch]{
		use:     "lost-found",
		short:   "Lost and found listings",
		fields:  []string{fTitle, fDescription, fKind, fLocation, fContact, fImage, fImageFile},
		kinds:   "lost|found",
		gateway: func(b *client.Board) *gateway.LostFound { return b.LostFound },
		draft: func(f *form) domain.LostFoundDraft {
			return domain.LostFoundDraft{
				Title:       f.title,
				Description: f.description,
				Kind:        domain.LostFoundKind(f.kind),
				Location:    f.location,
				ContactInfo: f.contact,
				ImageURL:    f.image,
			}
		},
		patch: func(cmd *cobra.Command, f *form) domain.LostFoundPatch {
			p := domain.LostFoundPatch{
				Title:       set(cmd, fTitle, &f.title),
				Description: set(cmd, fDescription, &f.description),
				Location:    set(cmd, fLocation, &f.location),
				ContactInfo: set(cmd, fContact, &f.contact),
				ImageURL:    set(cmd, fImage, &f.image),
			}
			if k := set(cmd, fKind, &f.kind); k != nil {
				kind := domain.LostFoundKind(*k)
				p.Kind = &kind
			}
			return p
		},
	})
}

func newJobsCmd(a *app) *cobra.Command {
	return tableCmd(a, tableDef[domain.JobRecord, domain.JobDraft, domain.JobPatch]{
		use:     "jobs",
		short:   "Job offers and requests",
		fields:  []string{fTitle, fDescription, fKind, fLocation, fContact, fSalary, fImage, fImageFile},
		kinds:   "offer|request",
		gateway: func(b *client.Board) *gateway.Jobs { return b.Jobs },
		draft: func(f *form) domain.JobDraft {
			return domain.JobDraft{
				Title:       f.title,
				Description: f.description,
				Kind:        domain.JobKind(f.kind),
				Location:    f.location,
				ContactInfo: f.contact,
				SalaryRange: f.salary,
				ImageURL:    f.image,
			}
		},
		patch: func(cmd *cobra.Command, f *form) domain.JobPatch {
			p := domain.JobPatch{
				Title:       set(cmd, fTitle, &f.title),
				Description: set(cmd, fDescription, &f.description),
				Location:    set(cmd, fLocation, &f.location),
				ContactInfo: set(cmd, fContact, &f.contact),
				SalaryRange: set(cmd, fSalary, &f.salary),
				ImageURL:    set(cmd, fImage, &f.image),
			}
			if k := set(cmd, fKind, &f.kind); k != nil {
				kind := domain.JobKind(*k)
				p.Kind = &kind
			}
			return p
		},
	})
}

func newNewsCmd(a *app) *cobra.Command {
	return tableCmd(a, tableDef[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch]{
		use:     "news",
		short:   "News articles (admins write, everyone reads)",
		fields:  []string{fTitle, fContent, fImage, fImageFile},
		gateway: func(b *client.Board) *gateway.News { return b.News },
		draft: func(f *form) domain.NewsDraft {
			return domain.NewsDraft{Title: f.title, Content: f.content, ImageURL: f.image}
		},
		patch: func(cmd *cobra.Command, f *form) domain.NewsPatch {
			return domain.NewsPatch{
				Title:    set(cmd, fTitle, &f.title),
				Content:  set(cmd, fContent, &f.content),
				ImageURL: set(cmd, fImage, &f.image),
			}
		},
	})
}
