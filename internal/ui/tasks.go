package ui

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/mintcrm/console/internal/crm"
)

// TasksPage is a simple checklist. Removing a task cancels it; cancelled
// tasks stay out of every view unless the status filter asks for them.
type TasksPage struct {
	page

	tasks    []crm.Task
	count    int
	status   string
	search   string

	formOpen bool
	form     crm.CreateTaskData
}

func (p *TasksPage) OnMount(ctx app.Context) {
	p.mount(ctx, p.load)
}

func (p *TasksPage) load(ctx app.Context) {
	n := p.seq.next()
	reqCtx := p.ctx
	opts := crm.TaskListOptions{
		Status:   p.status,
		Search:   p.search,
		Ordering: "-created_at",
	}
	client := p.backend.Client
	ctx.Async(func() {
		res, err := client.Tasks.List(reqCtx, opts)
		ctx.Dispatch(func(ctx app.Context) {
			if !p.seq.current(n) {
				return
			}
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.tasks = visibleTasks(res.Results, p.status)
			p.count = res.Count
		})
	})
}

// visibleTasks drops cancelled tasks unless they were asked for
// explicitly.
func visibleTasks(tasks []crm.Task, statusFilter string) []crm.Task {
	if statusFilter == crm.TaskCancelled {
		return tasks
	}
	out := tasks[:0:0]
	for _, t := range tasks {
		if t.Status != crm.TaskCancelled {
			out = append(out, t)
		}
	}
	return out
}

// toggledStatus flips a task between pending and completed; the other
// statuses pass through completed first.
func toggledStatus(status string) string {
	if status == crm.TaskCompleted {
		return crm.TaskPending
	}
	return crm.TaskCompleted
}

func (p *TasksPage) onSearch(ctx app.Context, e app.Event) {
	p.search = ctx.JSSrc().Get("value").String()
	p.debounce.trigger(func() {
		ctx.Dispatch(func(ctx app.Context) { p.load(ctx) })
	})
}

func (p *TasksPage) onSearchKey(ctx app.Context, e app.Event) {
	if e.Get("key").String() == "Enter" {
		p.debounce.flush()
	}
}

func (p *TasksPage) toggle(ctx app.Context, task crm.Task) {
	status := toggledStatus(task.Status)
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		_, err := client.Tasks.Update(reqCtx, task.ID, crm.UpdateTaskData{Status: &status})
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.load(ctx)
		})
	})
}

func (p *TasksPage) cancel(ctx app.Context, id int) {
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		_, err := client.Tasks.Cancel(reqCtx, id)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Task cancelled")
			p.load(ctx)
		})
	})
}

func (p *TasksPage) create(ctx app.Context, e app.Event) {
	e.PreventDefault()
	data := p.form
	reqCtx := p.ctx
	client := p.backend.Client
	ctx.Async(func() {
		_, err := client.Tasks.Create(reqCtx, data)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.showError(ctx, err)
				return
			}
			p.showSuccess("Task created")
			p.formOpen = false
			p.form = crm.CreateTaskData{}
			p.load(ctx)
		})
	})
}

func (p *TasksPage) Render() app.UI {
	return p.guard(func() app.UI {
		return p.shell("/tasks",
			app.H2().Text("Tasks"),
			app.Div().Class("toolbar").Body(
				app.Input().Class("search").Type("search").
					Placeholder("Search tasks...").
					Value(p.search).
					OnInput(p.onSearch).
					OnKeyDown(p.onSearchKey),
				filterSelect("Active",
					[]string{crm.TaskPending, crm.TaskInProgress, crm.TaskCompleted, crm.TaskCancelled},
					p.status,
					func(ctx app.Context, v string) {
						p.status = v
						p.load(ctx)
					}),
				app.Button().Class("btn-primary").Text("New task").
					OnClick(func(ctx app.Context, e app.Event) {
						p.formOpen = true
						p.form = crm.CreateTaskData{Priority: "medium"}
					}),
			),
			app.Ul().Class("task-list").Body(
				app.Range(p.tasks).Slice(func(i int) app.UI {
					task := p.tasks[i]
					cls := "task"
					if task.Status == crm.TaskCompleted {
						cls += " done"
					}
					return app.Li().Class(cls).Body(
						app.Input().Type("checkbox").
							Checked(task.Status == crm.TaskCompleted).
							OnChange(func(ctx app.Context, e app.Event) {
								p.toggle(ctx, task)
							}),
						app.Span().Class("task-title").Text(task.Title),
						app.If(task.DueDate != "", func() app.UI {
							return app.Span().Class("task-due").Text("due " + task.DueDate)
						}),
						app.If(task.AssignedTo != nil, func() app.UI {
							return app.Span().Class("task-assignee").Text(userName(task.AssignedTo))
						}),
						app.Button().Class("btn-small btn-danger").Text("Cancel").
							OnClick(func(ctx app.Context, e app.Event) {
								p.cancel(ctx, task.ID)
							}),
					)
				}),
			),
			app.If(p.formOpen, p.renderForm),
		)
	})
}

func (p *TasksPage) renderForm() app.UI {
	return app.Form().Class("edit-form").OnSubmit(p.create).Body(
		app.H3().Text("New task"),
		textField("Title", p.form.Title, func(v string) { p.form.Title = v }),
		textField("Description", p.form.Description, func(v string) { p.form.Description = v }),
		textField("Due date", p.form.DueDate, func(v string) { p.form.DueDate = v }),
		app.Div().Class("field").Body(
			app.Label().Text("Priority"),
			optionSelect(casePriorities, p.form.Priority,
				func(ctx app.Context, v string) { p.form.Priority = v }),
		),
		app.Button().Type("submit").Class("btn-primary").Text("Create"),
		app.Button().Type("button").Class("btn-small").Text("Cancel").
			OnClick(func(ctx app.Context, e app.Event) {
				p.formOpen = false
				p.form = crm.CreateTaskData{}
			}),
	)
}
