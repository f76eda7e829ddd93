package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	procapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Test helpers

func setupReturnNoteTestRouter() (*gin.Engine, *MockOrderingDocumentRepository, *MockReceiptNoteRepository, *MockReturnNoteRepository, *ReturnNoteHandler) {
	gin.SetMode(gin.TestMode)

	mockDocRepo := new(MockOrderingDocumentRepository)
	mockReceiptRepo := new(MockReceiptNoteRepository)
	mockReturnRepo := new(MockReturnNoteRepository)
	service := procapp.NewReturnNoteService(mockDocRepo, mockReceiptRepo, mockReturnRepo)
	handler := NewReturnNoteHandler(service)

	router := gin.New()

	return router, mockDocRepo, mockReceiptRepo, mockReturnRepo, handler
}

// createTestReturnNote builds an open return note with one stored item, the
// shape a note has after being fetched from storage.
func createTestReturnNote(scope shared.ProjectScope, doc *procurement.OrderingDocument, returned int64) *procurement.ReturnNote {
	note, err := procurement.NewReturnNote(scope, "RN-2026-00001", doc.Ref())
	if err != nil {
		panic(err)
	}
	itemID := uuid.New()
	now := time.Now()
	note.Items = []procurement.ReturnNoteItem{
		{
			ID:             &itemID,
			NoteID:         note.ID,
			ItemID:         "ITM-1001",
			BaseItemID:     "BASE-2001",
			ItemName:       "Carbon steel pipe DN50",
			ReturnQuantity: decimal.NewFromInt(returned),
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
	note.ClearDomainEvents()
	return note
}

// Tests

func TestReturnNoteHandler_UpdateItems(t *testing.T) {
	t.Run("should replace items keeping stored ids", func(t *testing.T) {
		router, mockDocRepo, mockReceiptRepo, mockReturnRepo, handler := setupReturnNoteTestRouter()
		scope := testScope()
		testDoc := createApprovedTestDocument(scope, "PO-2026-00001")
		receipt := createTestReceiptNote(scope, testDoc, 6)
		testNote := createTestReturnNote(scope, testDoc, 4)
		storedItemID := *testNote.Items[0].ID

		router.PUT("/return-notes/:id/items", handler.UpdateItems)

		mockReturnRepo.On("FindByID", mock.Anything, testNote.ID).Return(testNote, nil)
		mockDocRepo.On("FindByRef", mock.Anything, testDoc.Ref()).Return(testDoc, nil)
		mockReceiptRepo.On("ListActiveForDocument", mock.Anything, testDoc.Ref()).
			Return([]procurement.ReceiptNote{*receipt}, nil)
		mockReturnRepo.On("ListActiveItemsForDocument", mock.Anything, testDoc.Ref()).
			Return(testNote.Items, nil)
		mockReturnRepo.On("Save", mock.Anything, mock.MatchedBy(func(note *procurement.ReturnNote) bool {
			return len(note.Items) == 1 &&
				note.Items[0].ID != nil && *note.Items[0].ID == storedItemID &&
				note.Items[0].ReturnQuantity.Equal(decimal.NewFromInt(3))
		})).Return(nil)

		body, _ := json.Marshal(UpdateReturnNoteItemsRequest{
			Items: []ReturnItemInput{
				{ItemID: "ITM-1001", BaseItemID: "BASE-2001", ItemName: "Carbon steel pipe DN50", ReturnQuantity: 3},
			},
		})

		req, _ := http.NewRequest(http.MethodPut, "/return-notes/"+testNote.ID.String()+"/items", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		setScopeHeaders(req, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		mockReturnRepo.AssertExpectations(t)
	})

	t.Run("should reject return exceeding the uncovered shortfall", func(t *testing.T) {
		router, mockDocRepo, mockReceiptRepo, mockReturnRepo, handler := setupReturnNoteTestRouter()
		scope := testScope()
		testDoc := createApprovedTestDocument(scope, "PO-2026-00001")
		receipt := createTestReceiptNote(scope, testDoc, 6)
		testNote := createTestReturnNote(scope, testDoc, 4)

		router.PUT("/return-notes/:id/items", handler.UpdateItems)

		mockReturnRepo.On("FindByID", mock.Anything, testNote.ID).Return(testNote, nil)
		mockDocRepo.On("FindByRef", mock.Anything, testDoc.Ref()).Return(testDoc, nil)
		mockReceiptRepo.On("ListActiveForDocument", mock.Anything, testDoc.Ref()).
			Return([]procurement.ReceiptNote{*receipt}, nil)
		mockReturnRepo.On("ListActiveItemsForDocument", mock.Anything, testDoc.Ref()).
			Return(testNote.Items, nil)

		// 10 ordered, 6 received: the leftover allows at most 4
		body, _ := json.Marshal(UpdateReturnNoteItemsRequest{
			Items: []ReturnItemInput{
				{ItemID: "ITM-1001", BaseItemID: "BASE-2001", ReturnQuantity: 5},
			},
		})

		req, _ := http.NewRequest(http.MethodPut, "/return-notes/"+testNote.ID.String()+"/items", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		setScopeHeaders(req, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		mockReturnRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("should reject an item that is not on the document", func(t *testing.T) {
		router, mockDocRepo, mockReceiptRepo, mockReturnRepo, handler := setupReturnNoteTestRouter()
		scope := testScope()
		testDoc := createApprovedTestDocument(scope, "PO-2026-00001")
		testNote := createTestReturnNote(scope, testDoc, 4)

		router.PUT("/return-notes/:id/items", handler.UpdateItems)

		mockReturnRepo.On("FindByID", mock.Anything, testNote.ID).Return(testNote, nil)
		mockDocRepo.On("FindByRef", mock.Anything, testDoc.Ref()).Return(testDoc, nil)
		mockReceiptRepo.On("ListActiveForDocument", mock.Anything, testDoc.Ref()).
			Return([]procurement.ReceiptNote{}, nil)
		mockReturnRepo.On("ListActiveItemsForDocument", mock.Anything, testDoc.Ref()).
			Return([]procurement.ReturnNoteItem{}, nil)

		body, _ := json.Marshal(UpdateReturnNoteItemsRequest{
			Items: []ReturnItemInput{
				{ItemID: "ITM-9999", ReturnQuantity: 1},
			},
		})

		req, _ := http.NewRequest(http.MethodPut, "/return-notes/"+testNote.ID.String()+"/items", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		setScopeHeaders(req, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("should clear items with an explicit delete", func(t *testing.T) {
		router, _, _, mockReturnRepo, handler := setupReturnNoteTestRouter()
		scope := testScope()
		testDoc := createApprovedTestDocument(scope, "PO-2026-00001")
		testNote := createTestReturnNote(scope, testDoc, 4)

		router.PUT("/return-notes/:id/items", handler.UpdateItems)

		mockReturnRepo.On("FindByID", mock.Anything, testNote.ID).Return(testNote, nil)
		mockReturnRepo.On("DeleteItemsByNote", mock.Anything, testNote.ID).Return(nil)

		body, _ := json.Marshal(UpdateReturnNoteItemsRequest{Items: []ReturnItemInput{}})

		req, _ := http.NewRequest(http.MethodPut, "/return-notes/"+testNote.ID.String()+"/items", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		setScopeHeaders(req, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		mockReturnRepo.AssertExpectations(t)
		mockReturnRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("should reject updates on a closed note", func(t *testing.T) {
		router, _, _, mockReturnRepo, handler := setupReturnNoteTestRouter()
		scope := testScope()
		testDoc := createApprovedTestDocument(scope, "PO-2026-00001")
		testNote := createTestReturnNote(scope, testDoc, 4)
		assert.NoError(t, testNote.Close())

		router.PUT("/return-notes/:id/items", handler.UpdateItems)

		mockReturnRepo.On("FindByID", mock.Anything, testNote.ID).Return(testNote, nil)

		body, _ := json.Marshal(UpdateReturnNoteItemsRequest{
			Items: []ReturnItemInput{
				{ItemID: "ITM-1001", ReturnQuantity: 1},
			},
		})

		req, _ := http.NewRequest(http.MethodPut, "/return-notes/"+testNote.ID.String()+"/items", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		setScopeHeaders(req, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestReturnNoteHandler_GetByID(t *testing.T) {
	t.Run("should get return note by ID", func(t *testing.T) {
		router, _, _, mockReturnRepo, handler := setupReturnNoteTestRouter()
		scope := testScope()
		testDoc := createApprovedTestDocument(scope, "PO-2026-00001")
		testNote := createTestReturnNote(scope, testDoc, 4)

		router.GET("/return-notes/:id", handler.GetByID)

		mockReturnRepo.On("FindByID", mock.Anything, testNote.ID).Return(testNote, nil)

		req, _ := http.NewRequest(http.MethodGet, "/return-notes/"+testNote.ID.String(), nil)
		setScopeHeaders(req, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]any
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		mockReturnRepo.AssertExpectations(t)
	})

	t.Run("should return 404 for note in another project", func(t *testing.T) {
		router, _, _, mockReturnRepo, handler := setupReturnNoteTestRouter()
		otherScope := shared.NewProjectScope(uuid.New(), uuid.New())
		testDoc := createApprovedTestDocument(otherScope, "PO-2026-00001")
		testNote := createTestReturnNote(otherScope, testDoc, 4)

		router.GET("/return-notes/:id", handler.GetByID)

		mockReturnRepo.On("FindByID", mock.Anything, testNote.ID).Return(testNote, nil)

		req, _ := http.NewRequest(http.MethodGet, "/return-notes/"+testNote.ID.String(), nil)
		setScopeHeaders(req, testScope())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReturnNoteHandler_List(t *testing.T) {
	t.Run("should list return notes", func(t *testing.T) {
		router, _, _, mockReturnRepo, handler := setupReturnNoteTestRouter()
		scope := testScope()
		testDoc := createApprovedTestDocument(scope, "PO-2026-00001")
		testNotes := []procurement.ReturnNote{*createTestReturnNote(scope, testDoc, 4)}

		router.GET("/return-notes", handler.List)

		mockReturnRepo.On("FindAllForScope", mock.Anything, scope, mock.AnythingOfType("shared.Filter")).
			Return(testNotes, nil)
		mockReturnRepo.On("CountForScope", mock.Anything, scope, mock.AnythingOfType("shared.Filter")).
			Return(int64(1), nil)

		req, _ := http.NewRequest(http.MethodGet, "/return-notes?status=OPEN", nil)
		setScopeHeaders(req, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		mockReturnRepo.AssertExpectations(t)
	})
}

func TestReturnNoteHandler_Close(t *testing.T) {
	t.Run("should close open return note", func(t *testing.T) {
		router, _, _, mockReturnRepo, handler := setupReturnNoteTestRouter()
		scope := testScope()
		testDoc := createApprovedTestDocument(scope, "PO-2026-00001")
		testNote := createTestReturnNote(scope, testDoc, 4)

		router.POST("/return-notes/:id/close", handler.Close)

		mockReturnRepo.On("FindByID", mock.Anything, testNote.ID).Return(testNote, nil)
		mockReturnRepo.On("Save", mock.Anything, mock.MatchedBy(func(note *procurement.ReturnNote) bool {
			return note.Status == procurement.ReturnNoteStatusClosed
		})).Return(nil)

		req, _ := http.NewRequest(http.MethodPost, "/return-notes/"+testNote.ID.String()+"/close", nil)
		setScopeHeaders(req, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		mockReturnRepo.AssertExpectations(t)
	})

	t.Run("should reject closing a cancelled note", func(t *testing.T) {
		router, _, _, mockReturnRepo, handler := setupReturnNoteTestRouter()
		scope := testScope()
		testDoc := createApprovedTestDocument(scope, "PO-2026-00001")
		testNote := createTestReturnNote(scope, testDoc, 4)
		assert.NoError(t, testNote.Cancel())

		router.POST("/return-notes/:id/close", handler.Close)

		mockReturnRepo.On("FindByID", mock.Anything, testNote.ID).Return(testNote, nil)

		req, _ := http.NewRequest(http.MethodPost, "/return-notes/"+testNote.ID.String()+"/close", nil)
		setScopeHeaders(req, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestReturnNoteHandler_Cancel(t *testing.T) {
	t.Run("should cancel return note", func(t *testing.T) {
		router, _, _, mockReturnRepo, handler := setupReturnNoteTestRouter()
		scope := testScope()
		testDoc := createApprovedTestDocument(scope, "PO-2026-00001")
		testNote := createTestReturnNote(scope, testDoc, 4)

		router.POST("/return-notes/:id/cancel", handler.Cancel)

		mockReturnRepo.On("FindByID", mock.Anything, testNote.ID).Return(testNote, nil)
		mockReturnRepo.On("Save", mock.Anything, mock.MatchedBy(func(note *procurement.ReturnNote) bool {
			return note.Status == procurement.ReturnNoteStatusCancelled && !note.IsActive
		})).Return(nil)

		req, _ := http.NewRequest(http.MethodPost, "/return-notes/"+testNote.ID.String()+"/cancel", nil)
		setScopeHeaders(req, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		mockReturnRepo.AssertExpectations(t)
	})
}
