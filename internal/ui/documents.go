package ui

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

// DocumentsPage browses the folder tree and the documents inside the
// current folder. Uploads read the picked file through the browser's
// File API before handing the bytes to the client.
type DocumentsPage struct {
	page

	folders   []crm.Folder
	documents []crm.Document
	current   int // folder id, 0 is the root
	search    string

	newFolder string
	renaming  *crm.Document
	renameTo  string
}

func (p *DocumentsPage) OnMount(ctx app.Context) {
	p.mount(ctx, p.load)
}

func (p *DocumentsPage) load(ctx app.Context) {
	n := p.seq.next()
	reqCtx := p.ctx
	docOpts := crm.DocumentListOptions{Search: p.search, Folder: p.current}
	folderOpts := crm.FolderListOptions{Parent: p.current}
	client := p.backend.Client
	ctx.Async(func() {
		docs, err := client.Documents.List(reqCtx, docOpts)
		folders, ferr := client.Documents.Folders(reqCtx, folderOpts)
		ctx.Dispatch(func(ctx app.Context) {
			if !p.seq.current(n) {
				return
			}
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.documents = docs.Results
			if ferr == nil {
				p.folders = folders.Results
			}
		})
	})
}

func (p *DocumentsPage) onSearch(ctx app.Context, e app.Event) {
	p.search = ctx.JSSrc().Get("value").String()
	p.debounce.trigger(func() {
		ctx.Dispatch(func(ctx app.Context) { p.load(ctx) })
	})
}

func (p *DocumentsPage) onSearchKey(ctx app.Context, e app.Event) {
	if e.Get("key").String() == "Enter" {
		p.debounce.flush()
	}
}

func (p *DocumentsPage) onUpload(ctx app.Context, e app.Event) {
	files := ctx.JSSrc().Get("files")
	if files.Get("length").Int() == 0 {
		return
	}
	file := files.Index(0)
	name := file.Get("name").String()
	folder := p.current
	reqCtx := p.ctx
	client := p.backend.Client

	var onLoad app.Func
	reader := app.Window().Get("FileReader").New()
	onLoad = app.FuncOf(func(this app.Value, args []app.Value) any {
		defer onLoad.Release()
		buf := app.Window().Get("Uint8Array").New(reader.Get("result"))
		data := make([]byte, buf.Get("length").Int())
		app.CopyBytesToGo(data, buf)
		ctx.Async(func() {
			_, err := client.Documents.Upload(reqCtx, name, name, data, folder)
			ctx.Dispatch(func(ctx app.Context) {
				if err != nil {
					p.showError(ctx, err)
					return
				}
				p.showSuccess("Uploaded " + name)
				p.load(ctx)
			})
		})
		return nil
	})
	reader.Set("onload", onLoad)
	reader.Call("readAsArrayBuffer", file)
}

func (p *DocumentsPage) createFolder(ctx app.Context, e app.Event) {
	e.PreventDefault()
	name := p.newFolder
	if name == "" {
		return
	}
	var parent *int
	if p.current != 0 {
		id := p.current
		parent = &id
	}
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		_, err := client.Documents.CreateFolder(reqCtx, name, parent)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.newFolder = ""
			p.showSuccess("Folder created")
			p.load(ctx)
		})
	})
}

func (p *DocumentsPage) rename(ctx app.Context, e app.Event) {
	e.PreventDefault()
	doc := p.renaming
	title := p.renameTo
	if doc == nil || title == "" {
		return
	}
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		_, err := client.Documents.Patch(reqCtx, doc.ID, map[string]any{"title": title})
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.renaming = nil
			p.renameTo = ""
			p.showSuccess("Document renamed")
			p.load(ctx)
		})
	})
}

func (p *DocumentsPage) move(ctx app.Context, docID, folderID int) {
	var folder any
	if folderID != 0 {
		folder = folderID
	}
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		_, err := client.Documents.Patch(reqCtx, docID, map[string]any{"folder": folder})
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Document moved")
			p.load(ctx)
		})
	})
}

func (p *DocumentsPage) remove(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		err := client.Documents.Delete(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Document deleted")
			p.load(ctx)
		})
	})
}

func (p *DocumentsPage) removeFolder(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		err := client.Documents.DeleteFolder(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Folder deleted")
			p.load(ctx)
		})
	})
}

func (p *DocumentsPage) Render() app.UI {
	return p.guard(func() app.UI {
		return p.shell("/documents",
			app.H2().Text("Documents"),
			app.Div().Class("toolbar").Body(
				app.Input().Class("search").Type("search").
					Placeholder("Search documents...").
					Value(p.search).
					OnInput(p.onSearch).
					OnKeyDown(p.onSearchKey),
				app.If(p.current != 0, func() app.UI {
					return app.Button().Class("btn-small").Text("Up to root").
						OnClick(func(ctx app.Context, e app.Event) {
							p.current = 0
							p.load(ctx)
						})
				}),
				app.Label().Class("btn-primary upload").Body(
					app.Span().Text("Upload"),
					app.Input().Type("file").OnChange(p.onUpload),
				),
			),
			app.Form().Class("inline-form").OnSubmit(p.createFolder).Body(
				app.Input().Type("text").Placeholder("New folder name").
					Value(p.newFolder).
					OnInput(func(ctx app.Context, e app.Event) {
						p.newFolder = ctx.JSSrc().Get("value").String()
					}),
				app.Button().Type("submit").Class("btn-small").Text("Create folder"),
			),
			app.Div().Class("folder-grid").Body(
				app.Range(p.folders).Slice(func(i int) app.UI {
					f := p.folders[i]
					return app.Div().Class("folder").Body(
						app.Button().Class("folder-name").Text(f.Name).
							OnClick(func(ctx app.Context, e app.Event) {
								p.current = f.ID
								p.load(ctx)
							}),
						app.Button().Class("btn-small btn-danger").Text("Delete").
							OnClick(func(ctx app.Context, e app.Event) {
								p.removeFolder(ctx, f.ID)
							}),
					)
				}),
			),
			app.Table().Class("data-table").Body(
				app.THead().Body(app.Tr().Body(
					app.Th().Text("Title"),
					app.Th().Text("Size"),
					app.Th().Text("Type"),
					app.Th().Text("Uploaded"),
					app.Th(),
				)),
				app.TBody().Body(
					app.Range(p.documents).Slice(func(i int) app.UI {
						doc := p.documents[i]
						return app.Tr().Body(
							app.Td().Body(
								app.A().Href(doc.File).Text(doc.Title),
							),
							app.Td().Text(humanize.Bytes(uint64(doc.FileSize))),
							app.Td().Text(doc.MimeType),
							app.Td().Text(doc.CreatedAt),
							app.Td().Body(
								app.Button().Class("btn-small").Text("Rename").
									OnClick(func(ctx app.Context, e app.Event) {
										full := p.documents[i]
										p.renaming = &full
										p.renameTo = full.Title
									}),
								app.Select().
									OnChange(func(ctx app.Context, e app.Event) {
										id, _ := strconv.Atoi(ctx.JSSrc().Get("value").String())
										if id >= 0 {
											p.move(ctx, doc.ID, id)
										}
									}).
									Body(
										app.Option().Value("-1").Text("Move to...").Selected(true),
										app.Option().Value("0").Text("Root"),
										app.Range(p.folders).Slice(func(j int) app.UI {
											f := p.folders[j]
											return app.Option().
												Value(strconv.Itoa(f.ID)).
												Text(f.Name)
										}),
									),
								app.Button().Class("btn-small btn-danger").Text("Delete").
									OnClick(func(ctx app.Context, e app.Event) {
										p.remove(ctx, doc.ID)
									}),
							),
						)
					}),
				),
			),
			app.If(p.renaming != nil, p.renderRename),
		)
	})
}

func (p *DocumentsPage) renderRename() app.UI {
	return app.Form().Class("edit-form").OnSubmit(p.rename).Body(
		app.H3().Text("Rename "+p.renaming.Title),
		textField("Title", p.renameTo, func(v string) { p.renameTo = v }),
		app.Button().Type("submit").Class("btn-primary").Text("Rename"),
		app.Button().Type("button").Class("btn-small").Text("Cancel").
			OnClick(func(ctx app.Context, e app.Event) {
				p.renaming = nil
				p.renameTo = ""
			}),
	)
}
